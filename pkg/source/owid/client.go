// Package owid provides a source.Source implementation downloading the Our
// World in Data COVID-19 JSON export over HTTP.
package owid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"covidexport/internal/config"
	"covidexport/pkg/logger"
	"covidexport/pkg/serrors"
	"covidexport/pkg/source"
)

// DefaultURL is the location of the full OWID export.
const DefaultURL = "https://covid.ourworldindata.org/data/owid-covid-data.json"

// maxErrorBody limits how much of an error response ends up in the error message.
const maxErrorBody = 512

// Options configure the download.
type Options struct {
	// URL of the document, DefaultURL when empty.
	URL string
	// Timeout bounds a single attempt, zero means no limit besides ctx.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first failed attempt.
	MaxRetries uint64
	// InitialInterval is the first backoff delay, the backoff default when zero.
	InitialInterval time.Duration
	// UserAgent is sent with every request when set.
	UserAgent string
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		URL:        cfg.Source.URL,
		Timeout:    cfg.Source.Timeout,
		MaxRetries: cfg.Source.MaxRetries,
		UserAgent:  "covidexport",
	}
}

// Client downloads the document and retries transient failures (transport
// errors, 5xx and 429 responses) with exponential backoff. It is safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	options    Options
}

// Ensure Client conforms to the source.Source interface at compile time.
var _ source.Source = (*Client)(nil)

// New constructs a Client that uses the provided http.Client.
func New(httpClient *http.Client, options Options) *Client {
	if options.URL == "" {
		options.URL = DefaultURL
	}

	return &Client{
		httpClient: httpClient,
		options:    options,
	}
}

// Open requests the document and returns its (decompressed) body for
// streaming. The caller must close it. Errors are classified with serrors
// kinds: ErrRateLimited and ErrUnavailable after the retries are exhausted,
// ErrNotFound and ErrBadRequest immediately. Only establishing the response is
// retried; a read failure while streaming the body is returned by Read as
// ErrUnavailable.
func (c *Client) Open(ctx context.Context) (io.ReadCloser, error) {
	b := backoff.NewExponentialBackOff()
	if c.options.InitialInterval > 0 {
		b.InitialInterval = c.options.InitialInterval
	}
	b.MaxElapsedTime = 0

	attempt := 0
	rc, err := backoff.RetryNotifyWithData(func() (*body, error) {
		attempt++

		return c.open(ctx)
	}, backoff.WithContext(backoff.WithMaxRetries(b, c.options.MaxRetries), ctx),
		func(err error, next time.Duration) {
			logger.Warn(ctx, "could not fetch source document, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", next),
				zap.Error(err))
		})
	if err != nil {
		return nil, fmt.Errorf("could not fetch %s: %w", c.options.URL, err)
	}

	logger.Debug(ctx, "source document opened",
		zap.Int64("contentLength", rc.size),
		zap.Bool("gzip", rc.gzip),
		zap.Int("attempts", attempt))

	return rc, nil
}

func (c *Client) open(ctx context.Context) (_ *body, err error) {
	cancel := context.CancelFunc(func() {})
	if c.options.Timeout > 0 {
		// the attempt lasts until the body is closed
		ctx, cancel = context.WithTimeout(ctx, c.options.Timeout)
	}
	defer func() {
		if err != nil {
			cancel()
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.options.URL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("could not create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	// requested explicitly, so the transport leaves decompression to us
	req.Header.Set("Accept-Encoding", "gzip")
	if c.options.UserAgent != "" {
		req.Header.Set("User-Agent", c.options.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, backoff.Permanent(err)
		}

		return nil, serrors.Wrap(serrors.ErrUnavailable, err, "could not send request")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() {
			_ = resp.Body.Close()
		}()

		return nil, statusError(resp)
	}

	out := &body{
		r:       resp.Body,
		size:    resp.ContentLength,
		closers: []func() error{resp.Body.Close},
		cancel:  cancel,
	}
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			_ = resp.Body.Close()

			return nil, serrors.Wrap(serrors.ErrUnavailable, err, "could not read gzip response")
		}
		out.r, out.gzip = zr, true
		out.closers = append([]func() error{zr.Close}, out.closers...)
	}

	return out, nil
}

// body is an open response body. Read failures are classified as
// ErrUnavailable so that they are not mistaken for a malformed document.
type body struct {
	r       io.Reader
	size    int64
	gzip    bool
	closers []func() error
	cancel  context.CancelFunc
}

func (b *body) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, serrors.Wrap(serrors.ErrUnavailable, err, "could not read response body")
	}

	return n, err //nolint: wrapcheck
}

func (b *body) Close() error {
	defer b.cancel()

	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}

	return errors.Join(errs...)
}

// statusError maps a non 2xx response to a semantic error. Only 429 and 5xx
// responses are retried.
func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(b))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return serrors.With(serrors.ErrRateLimited, "rate limited: %s", msg)
	case resp.StatusCode >= 500:
		return serrors.With(serrors.ErrUnavailable, "server error %d: %s", resp.StatusCode, msg)
	case resp.StatusCode == http.StatusNotFound:
		return backoff.Permanent(serrors.With(serrors.ErrNotFound, "document not found"))
	default:
		return backoff.Permanent(serrors.With(serrors.ErrBadRequest, "unexpected status %d: %s", resp.StatusCode, msg))
	}
}
