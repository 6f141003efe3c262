package s3

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
)

// ObjectStore is the subset of *minio.Client used by the publisher.
//
//go:generate mockgen -package mocks3 -source=interface.go -destination=mock/mocks3.go *
type ObjectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64,
		opts minio.PutObjectOptions) (minio.UploadInfo, error)
}
