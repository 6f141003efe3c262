// Code generated by ogen, DO NOT EDIT.

package v1specs

import (
	"context"
)

// Handler handles operations described by OpenAPI v3 specification.
type Handler interface {
	// GetMetadata implements getMetadata operation.
	//
	// Metadata of every exported entity.
	//
	// GET /countries.json
	GetMetadata(ctx context.Context) (GetMetadataRes, error)
	// GetSeries implements getSeries operation.
	//
	// Daily time series of one entity.
	//
	// GET /{code}.json
	GetSeries(ctx context.Context, params GetSeriesParams) (GetSeriesRes, error)
	// ListRuns implements listRuns operation.
	//
	// Only available when run history is enabled.
	//
	// GET /runs
	ListRuns(ctx context.Context, params ListRunsParams) (ListRunsRes, error)
	// NewError creates *ServerErrorStatusCode from error returned by handler.
	//
	// Used for common default response.
	NewError(ctx context.Context, err error) *ServerErrorStatusCode
}

// Server implements http server based on OpenAPI v3 specification and
// calls Handler to handle requests.
type Server struct {
	h Handler
	baseServer
}

// NewServer creates new Server.
func NewServer(h Handler, opts ...ServerOption) (*Server, error) {
	s, err := newServerConfig(opts...).baseServer()
	if err != nil {
		return nil, err
	}
	return &Server{
		h:          h,
		baseServer: s,
	}, nil
}
