// Package s3 publishes artifacts to an S3 compatible bucket using minio-go.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"covidexport/internal/config"
	"covidexport/pkg/logger"
	"covidexport/pkg/publisher"
	"covidexport/pkg/serrors"
)

// Name is reported by Publisher.Name.
const Name = "s3"

// Options configure the bucket layout and the upload.
type Options struct {
	Endpoint        string
	Region          string
	Bucket          string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	// Gzip compresses bodies and sets Content-Encoding: gzip on the objects.
	Gzip bool
	// CacheControl is set on every object when not empty.
	CacheControl string
	// Concurrency bounds parallel uploads, values below 1 mean sequential.
	Concurrency int
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Endpoint:        cfg.S3.Endpoint,
		Region:          cfg.S3.Region,
		Bucket:          cfg.S3.Bucket,
		Prefix:          cfg.S3.Prefix,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		UseSSL:          cfg.S3.UseSSL,
		Gzip:            cfg.S3.Gzip,
		CacheControl:    "public, max-age=3600",
		Concurrency:     cfg.Output.Concurrency,
	}
}

// Publisher uploads artifacts as objects named Prefix + artifact name.
type Publisher struct {
	store   ObjectStore
	options Options
}

// Ensure Publisher conforms to the publisher.Publisher interface at compile time.
var _ publisher.Publisher = (*Publisher)(nil)

// New creates a publisher backed by a minio client built from options.
func New(options Options) (*Publisher, error) {
	if options.Bucket == "" {
		return nil, errors.New("bucket is required")
	}

	client, err := minio.New(options.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(options.AccessKeyID, options.SecretAccessKey, ""),
		Secure: options.UseSSL,
		Region: options.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create minio client: %w", err)
	}

	return NewWithStore(client, options), nil
}

// NewWithStore creates a publisher on top of an existing ObjectStore.
func NewWithStore(store ObjectStore, options Options) *Publisher {
	return &Publisher{
		store:   store,
		options: options,
	}
}

// Name implements publisher.Publisher.
func (p *Publisher) Name() string { return Name }

// Key returns the object key of an artifact.
func (p *Publisher) Key(name string) string {
	if p.options.Prefix == "" {
		return name
	}

	return path.Join(strings.Trim(p.options.Prefix, "/"), name)
}

// EnsureBucket creates the bucket when it does not exist yet.
func (p *Publisher) EnsureBucket(ctx context.Context) error {
	exists, err := p.store.BucketExists(ctx, p.options.Bucket)
	if err != nil {
		return classify(err, "could not check bucket %s", p.options.Bucket)
	}
	if exists {
		return nil
	}

	logger.Info(ctx, "creating bucket", zap.String("bucket", p.options.Bucket))
	if err := p.store.MakeBucket(ctx, p.options.Bucket, minio.MakeBucketOptions{Region: p.options.Region}); err != nil {
		return classify(err, "could not create bucket %s", p.options.Bucket)
	}

	return nil
}

// Publish uploads names from fsys. A failing object does not stop the others;
// all failures are returned joined, in names order.
func (p *Publisher) Publish(ctx context.Context, fsys fs.FS, names []string) error {
	if err := p.EnsureBucket(ctx); err != nil {
		return err
	}

	errs := make([]error, len(names))

	var g errgroup.Group
	g.SetLimit(max(1, p.options.Concurrency))
	for i, name := range names {
		g.Go(func() error {
			errs[i] = p.upload(ctx, fsys, name)

			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func (p *Publisher) upload(ctx context.Context, fsys fs.FS, name string) error {
	body, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", name, err)
	}

	opts := minio.PutObjectOptions{
		ContentType:  contentType(name),
		CacheControl: p.options.CacheControl,
	}
	if p.options.Gzip {
		if body, err = Compress(body); err != nil {
			return fmt.Errorf("could not compress %s: %w", name, err)
		}
		opts.ContentEncoding = "gzip"
	}

	key := p.Key(name)
	if _, err := p.store.PutObject(ctx, p.options.Bucket, key, bytes.NewReader(body), int64(len(body)), opts); err != nil {
		return classify(err, "could not upload %s", key)
	}
	logger.Debug(ctx, "uploaded artifact", zap.String("key", key), zap.Int("bytes", len(body)))

	return nil
}

// Compress gzips body.
func Compress(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func contentType(name string) string {
	if path.Ext(name) == ".json" {
		return "application/json"
	}

	return "application/octet-stream"
}

// classify maps S3 error codes to serrors kinds.
func classify(err error, msgFmt string, args ...any) error {
	var k serrors.Kind
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchBucket", "NoSuchKey":
		k = serrors.ErrNotFound
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "InvalidBucketName":
		k = serrors.ErrBadRequest
	case "SlowDown", "TooManyRequests":
		k = serrors.ErrRateLimited
	default:
		k = serrors.ErrUnavailable
	}

	return serrors.Wrap(k, err, msgFmt, args...)
}
