// Package github publishes artifacts by committing them to a GitHub repository
// through the git data API, all changed artifacts in a single commit.
package github

import (
	"context"
	"crypto/sha1" //nolint: gosec
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/facebookgo/clock"
	gh "github.com/google/go-github/v80/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"covidexport/internal/config"
	"covidexport/pkg/logger"
	"covidexport/pkg/publisher"
	"covidexport/pkg/serrors"
)

// Name is reported by Publisher.Name.
const Name = "github"

const (
	// commitTimeLayout formats the UTC time prefix of commit messages.
	commitTimeLayout = "15:04:05"
	// blobConcurrency bounds the blobs uploaded at the same time.
	blobConcurrency = 8
	// fileMode is the git mode of a regular, non executable file.
	fileMode = "100644"
)

// Options select the destination repository.
type Options struct {
	Token string
	Owner string
	Repo  string

	// Branch to commit to, the repository default branch when empty.
	Branch     string
	// PathPrefix is the directory inside the repository.
	PathPrefix string
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Token:      cfg.GitHub.Token,
		Owner:      cfg.GitHub.Owner,
		Repo:       cfg.GitHub.Repo,
		Branch:     cfg.GitHub.Branch,
		PathPrefix: cfg.GitHub.PathPrefix,
	}
}

// Publisher commits the artifacts whose content changed since the head of
// the branch, all in one commit on top of it. The branch moves only when the
// whole commit could be built, so a failure never leaves it half updated.
type Publisher struct {
	client  *gh.Client
	clock   clock.Clock
	options Options
}

// Ensure Publisher conforms to the publisher.Publisher interface at compile time.
var _ publisher.Publisher = (*Publisher)(nil)

// New creates a publisher authenticated with options.Token.
func New(ctx context.Context, clk clock.Clock, options Options) *Publisher {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: options.Token})

	return NewWithClient(gh.NewClient(oauth2.NewClient(ctx, ts)), clk, options)
}

// NewWithClient creates a publisher on top of an existing client.
func NewWithClient(client *gh.Client, clk clock.Clock, options Options) *Publisher {
	return &Publisher{
		client:  client,
		clock:   clk,
		options: options,
	}
}

// Name implements publisher.Publisher.
func (p *Publisher) Name() string { return Name }

// Path returns the repository path of an artifact.
func (p *Publisher) Path(name string) string {
	prefix := strings.Trim(p.options.PathPrefix, "/")
	if prefix == "" {
		return name
	}

	return path.Join(prefix, name)
}

// CommitMessage returns the message used for commits made now.
func (p *Publisher) CommitMessage() string {
	return p.clock.Now().UTC().Format(commitTimeLayout) + " - Updated data"
}

// change is an artifact whose content differs from the head of the branch.
type change struct {
	path string
	body []byte
	sha  string
}

// Publish commits every changed artifact of names in a single commit and
// moves the branch to it. Nothing is committed when no artifact changed. The
// branch is only fast-forwarded: if it moved during the publish the update is
// rejected and the error is returned.
func (p *Publisher) Publish(ctx context.Context, fsys fs.FS, names []string) error {
	branch, err := p.branch(ctx)
	if err != nil {
		return err
	}

	head, err := p.head(ctx, branch)
	if err != nil {
		return err
	}

	existing, err := p.blobs(ctx, head.treeSHA)
	if err != nil {
		return err
	}

	changes := make([]change, 0, len(names))
	for _, name := range names {
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("could not read %s: %w", name, err)
		}
		repoPath := p.Path(name)
		if existing[repoPath] == BlobSHA(body) {
			continue
		}
		changes = append(changes, change{path: repoPath, body: body})
	}

	ctx = logger.WithFields(ctx,
		zap.String("repository", p.options.Owner+"/"+p.options.Repo),
		zap.String("branch", branch))
	if len(changes) == 0 {
		logger.Info(ctx, "github artifacts are up to date, nothing to commit", zap.Int("unchanged", len(names)))

		return nil
	}

	if err := p.createBlobs(ctx, changes); err != nil {
		return err
	}

	treeSHA, err := p.createTree(ctx, head.treeSHA, changes)
	if err != nil {
		return err
	}

	commitSHA, err := p.createCommit(ctx, treeSHA, head.commitSHA)
	if err != nil {
		return err
	}

	if err := p.updateRef(ctx, branch, commitSHA); err != nil {
		return err
	}

	logger.Info(ctx, "published artifacts to github",
		zap.String("commit", commitSHA),
		zap.Int("committed", len(changes)),
		zap.Int("unchanged", len(names)-len(changes)))

	return nil
}

// branch returns the configured branch or the default branch of the repository.
func (p *Publisher) branch(ctx context.Context) (string, error) {
	if p.options.Branch != "" {
		return p.options.Branch, nil
	}

	repo, _, err := p.client.Repositories.Get(ctx, p.options.Owner, p.options.Repo)
	if err != nil {
		return "", classify(err, "could not get repository")
	}
	if repo.GetDefaultBranch() == "" {
		return "", serrors.With(serrors.ErrBadRequest, "repository has no default branch")
	}

	return repo.GetDefaultBranch(), nil
}

type head struct {
	commitSHA string
	treeSHA   string
}

func (p *Publisher) head(ctx context.Context, branch string) (head, error) {
	ref, _, err := p.client.Git.GetRef(ctx, p.options.Owner, p.options.Repo, "heads/"+branch)
	if err != nil {
		return head{}, classify(err, "could not get branch %s", branch)
	}

	commitSHA := ref.GetObject().GetSHA()
	commit, _, err := p.client.Git.GetCommit(ctx, p.options.Owner, p.options.Repo, commitSHA)
	if err != nil {
		return head{}, classify(err, "could not get commit %s", commitSHA)
	}

	return head{commitSHA: commitSHA, treeSHA: commit.GetTree().GetSHA()}, nil
}

// blobs maps the paths of the files in the tree to their blob SHA. A truncated
// listing only disables the skipping of unchanged files it does not cover.
func (p *Publisher) blobs(ctx context.Context, treeSHA string) (map[string]string, error) {
	tree, _, err := p.client.Git.GetTree(ctx, p.options.Owner, p.options.Repo, treeSHA, true)
	if err != nil {
		return nil, classify(err, "could not get tree %s", treeSHA)
	}
	if tree.GetTruncated() {
		logger.Warn(ctx, "github tree listing is truncated, unchanged artifacts may be committed again")
	}

	blobs := make(map[string]string, len(tree.Entries))
	for _, entry := range tree.Entries {
		if entry.GetType() == "blob" {
			blobs[entry.GetPath()] = entry.GetSHA()
		}
	}

	return blobs, nil
}

type blobRequest struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

func (p *Publisher) createBlobs(ctx context.Context, changes []change) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(blobConcurrency)

	var mu sync.Mutex
	for i := range changes {
		g.Go(func() error {
			var blob gh.Blob
			err := p.send(gctx, http.MethodPost, "git/blobs", blobRequest{
				Content:  base64.StdEncoding.EncodeToString(changes[i].body),
				Encoding: "base64",
			}, &blob)
			if err != nil {
				return classify(err, "could not create blob for %s", changes[i].path)
			}

			mu.Lock()
			changes[i].sha = blob.GetSHA()
			mu.Unlock()

			return nil
		})
	}

	return g.Wait() //nolint: wrapcheck
}

type treeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
}

type treeRequest struct {
	BaseTree string      `json:"base_tree"`
	Tree     []treeEntry `json:"tree"`
}

func (p *Publisher) createTree(ctx context.Context, baseTree string, changes []change) (string, error) {
	req := treeRequest{BaseTree: baseTree, Tree: make([]treeEntry, 0, len(changes))}
	for _, c := range changes {
		req.Tree = append(req.Tree, treeEntry{Path: c.path, Mode: fileMode, Type: "blob", SHA: c.sha})
	}

	var tree gh.Tree
	if err := p.send(ctx, http.MethodPost, "git/trees", req, &tree); err != nil {
		return "", classify(err, "could not create tree")
	}

	return tree.GetSHA(), nil
}

type commitRequest struct {
	Message string   `json:"message"`
	Tree    string   `json:"tree"`
	Parents []string `json:"parents"`
}

func (p *Publisher) createCommit(ctx context.Context, treeSHA, parent string) (string, error) {
	var commit gh.Commit
	err := p.send(ctx, http.MethodPost, "git/commits", commitRequest{
		Message: p.CommitMessage(),
		Tree:    treeSHA,
		Parents: []string{parent},
	}, &commit)
	if err != nil {
		return "", classify(err, "could not create commit")
	}

	return commit.GetSHA(), nil
}

type refRequest struct {
	SHA   string `json:"sha"`
	Force bool   `json:"force"`
}

func (p *Publisher) updateRef(ctx context.Context, branch, commitSHA string) error {
	var ref gh.Reference
	if err := p.send(ctx, http.MethodPatch, "git/refs/heads/"+branch, refRequest{SHA: commitSHA}, &ref); err != nil {
		return classify(err, "could not move branch %s to %s", branch, commitSHA)
	}

	return nil
}

// send calls a git data endpoint of the repository.
func (p *Publisher) send(ctx context.Context, method, endpoint string, body, out any) error {
	u := fmt.Sprintf("repos/%s/%s/%s", p.options.Owner, p.options.Repo, endpoint)
	req, err := p.client.NewRequest(method, u, body)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}

	if _, err := p.client.Do(ctx, req, out); err != nil {
		return err //nolint: wrapcheck
	}

	return nil
}

// BlobSHA returns the git object id of a blob holding body.
func BlobSHA(body []byte) string {
	h := sha1.New() //nolint: gosec
	h.Write([]byte("blob " + strconv.Itoa(len(body)) + "\x00"))
	h.Write(body)

	return hex.EncodeToString(h.Sum(nil))
}

func classify(err error, msgFmt string, args ...any) error {
	var (
		rateErr  *gh.RateLimitError
		abuseErr *gh.AbuseRateLimitError
		respErr  *gh.ErrorResponse
	)
	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		return serrors.Wrap(serrors.ErrRateLimited, err, msgFmt, args...)
	case errors.As(err, &respErr) && respErr.Response != nil:
		switch code := respErr.Response.StatusCode; {
		case code == http.StatusNotFound:
			return serrors.Wrap(serrors.ErrNotFound, err, msgFmt, args...)
		case code >= 400 && code < 500 && code != http.StatusConflict:
			return serrors.Wrap(serrors.ErrBadRequest, err, msgFmt, args...)
		}
	}

	return serrors.Wrap(serrors.ErrUnavailable, err, msgFmt, args...)
}
