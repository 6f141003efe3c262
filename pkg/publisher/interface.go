// Package publisher defines collaborators that copy finished artifacts to a
// remote medium once a run has written them locally.
package publisher

import (
	"context"
	"io/fs"
)

// Publisher copies artifacts to a remote medium.
//
//go:generate mockgen -package mockpublisher -source=interface.go -destination=mock/mockpublisher.go *
type Publisher interface {
	// Name identifies the publisher in logs and run history.
	Name() string
	// Publish copies the named files of fsys. Implementations keep going after a
	// failed file and return the joined errors at the end.
	Publish(ctx context.Context, fsys fs.FS, names []string) error
}
