// Package v1handler implements the typed operations of the v1 API on top of the
// ogen generated v1specs server. Artifact downloads are not served here, they
// are plain files mounted next to it.
package v1handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"covidexport/internal/api/specs/v1specs"
	"covidexport/pkg/logger"
	"covidexport/pkg/storage"
)

// Deps are the dependencies of the v1 handlers.
type Deps struct {
	// Runs lists the run history.
	Runs storage.RunStorage
}

// Handler serves the v1 operations. The artifact operations stay unimplemented
// since the artifacts handler answers them before they reach the generated router.
type Handler struct {
	v1specs.UnimplementedHandler

	runs storage.RunStorage
}

// Ensure Handler implements v1specs.Handler.
var _ v1specs.Handler = (*Handler)(nil)

func New(deps Deps) *Handler {
	return &Handler{
		runs: deps.Runs,
	}
}

func (h Handler) NewError(ctx context.Context, err error) *v1specs.ServerErrorStatusCode {
	logger.Error(ctx, "v1 request failed", zap.Error(err))

	return &v1specs.ServerErrorStatusCode{
		StatusCode: http.StatusInternalServerError,
	}
}
