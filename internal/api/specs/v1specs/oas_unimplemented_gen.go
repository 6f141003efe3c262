// Code generated by ogen, DO NOT EDIT.

package v1specs

import (
	"context"

	ht "github.com/ogen-go/ogen/http"
)

// UnimplementedHandler is no-op Handler which returns http.ErrNotImplemented.
type UnimplementedHandler struct{}

var _ Handler = UnimplementedHandler{}

// GetMetadata implements getMetadata operation.
//
// Metadata of every exported entity.
//
// GET /countries.json
func (UnimplementedHandler) GetMetadata(ctx context.Context) (r GetMetadataRes, _ error) {
	return r, ht.ErrNotImplemented
}

// GetSeries implements getSeries operation.
//
// Daily time series of one entity.
//
// GET /{code}.json
func (UnimplementedHandler) GetSeries(ctx context.Context, params GetSeriesParams) (r GetSeriesRes, _ error) {
	return r, ht.ErrNotImplemented
}

// ListRuns implements listRuns operation.
//
// Only available when run history is enabled.
//
// GET /runs
func (UnimplementedHandler) ListRuns(ctx context.Context, params ListRunsParams) (r ListRunsRes, _ error) {
	return r, ht.ErrNotImplemented
}

// NewError creates *ServerErrorStatusCode from error returned by handler.
//
// Used for common default response.
func (UnimplementedHandler) NewError(ctx context.Context, err error) (r *ServerErrorStatusCode) {
	r = new(ServerErrorStatusCode)
	return r
}
