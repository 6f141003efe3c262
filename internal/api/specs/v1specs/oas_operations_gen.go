// Code generated by ogen, DO NOT EDIT.

package v1specs

// OperationName is the ogen operation name
type OperationName = string

const (
	GetMetadataOperation OperationName = "GetMetadata"
	GetSeriesOperation   OperationName = "GetSeries"
	ListRunsOperation    OperationName = "ListRuns"
)
