// Package source defines where the raw statistics document comes from.
package source

import (
	"context"
	"io"
)

// Source provides the raw, untrusted statistics document.
//
//go:generate mockgen -package mocksource -source=interface.go -destination=mock/mocksource.go *
type Source interface {
	// Open starts downloading the document and returns its (decompressed) body.
	// The caller must close it.
	Open(ctx context.Context) (io.ReadCloser, error)
}
