// Code generated by ogen, DO NOT EDIT.
package v1specs

type GetMetadataRes interface {
	getMetadataRes()
}

type GetSeriesRes interface {
	getSeriesRes()
}

type ListRunsRes interface {
	listRunsRes()
}
