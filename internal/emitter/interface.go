package emitter

import "context"

// Sink persists named artifacts on a target medium. Writes of different names
// must be independent so they can run concurrently; writing an existing name
// replaces it.
//
//go:generate mockgen -package mockemitter -source=interface.go -destination=mock/mockemitter.go *
type Sink interface {
	// WriteArtifact creates or overwrites the artifact called name with body.
	WriteArtifact(ctx context.Context, name string, body []byte) error
}
