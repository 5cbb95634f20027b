// Package github implements the version-control-backed storage driver.
//
// Content is stored as commits on a fixed branch of a remote repository,
// using the repository contents API. Reads do not go through the driver at
// all: every write resolves to a raw-content URL that is served by plain
// unauthenticated HTTP GET.
//
// The backend has no streaming write primitive. Every stored file is one
// whole-content commit, so Write buffers the entire stream in memory before
// issuing the commit; memory cost per write is proportional to the content
// length.
package github

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	gogithub "github.com/google/go-github/v55/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/pagehub/pagehub/pkg/storage"
)

// Kind is the configuration discriminator this driver registers under.
const Kind = "github"

const (
	defaultPath = "/"
	defaultRef  = "master"

	commitMessage  = "Add new content"
	committerName  = "pagehub"
	committerEmail = "hub@pagehub.io"
)

func init() {
	storage.Register(Kind, New)
}

// Driver stores content as commits in a remote repository. It is immutable
// after construction and safe for concurrent use; the authenticated API
// client is shared by all operations.
type Driver struct {
	cfg       storage.GitHubConfig
	bucket    string
	client    *gogithub.Client
	urlPrefix string
	logger    *zap.Logger
}

var _ storage.Driver = (*Driver)(nil)

// New validates cfg.GitHub and constructs the driver with an authenticated
// API client. Validation failures are fatal: there is no partially usable
// driver.
func New(cfg storage.Config, logger *zap.Logger) (storage.Driver, error) {
	gh := cfg.GitHub

	switch gh.AuthType {
	case "token", "oauth":
	default:
		return nil, fmt.Errorf("%w: %q", storage.ErrUnsupportedAuthType, gh.AuthType)
	}
	if gh.Token == "" {
		return nil, fmt.Errorf("%w: auth type %q requires a token", storage.ErrMissingCredential, gh.AuthType)
	}
	if gh.Owner == "" || gh.Repo == "" {
		return nil, fmt.Errorf("%w: owner and repo are required", storage.ErrMissingIdentifier)
	}
	if gh.Path == "" {
		gh.Path = defaultPath
		logger.Info("no storage path configured, using default", zap.String("path", defaultPath))
	}
	if gh.Ref == "" {
		gh.Ref = defaultRef
		logger.Info("no ref configured, using default", zap.String("ref", defaultRef))
	}

	// Both supported auth modes present the token the same way; the modes
	// differ only in how the credential was obtained upstream.
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: gh.Token})
	base := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{
		Transport: storage.DefaultTransport(),
	})
	client := gogithub.NewClient(oauth2.NewClient(base, ts))
	if gh.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(gh.BaseURL, gh.BaseURL)
		if err != nil {
			return nil, &storage.SetupError{Err: err}
		}
	}

	return &Driver{
		cfg:       gh,
		bucket:    cfg.Bucket,
		client:    client,
		urlPrefix: fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/", gh.Owner, gh.Repo, gh.Ref),
		logger:    logger,
	}, nil
}

// Write drains the request stream into memory, then commits the content to
// the configured branch in a single create-or-update call. The read URL is
// derived up front from configuration; it is returned only once the backend
// accepted the commit.
//
// Concurrent writes to the same path race at the backend: whatever commit
// lands last wins, and any conflict the backend reports is surfaced as a
// RemoteWriteError without coordination on this side.
func (d *Driver) Write(ctx context.Context, req storage.WriteRequest) (string, error) {
	if !storage.IsPathValid(req.Path) {
		return "", &storage.BadPathError{Path: req.Path}
	}

	contentPath := req.StorageTopLevel + "/" + req.Path
	readURL := d.urlPrefix + contentPath

	capacity := req.ContentLength
	if capacity < 0 {
		capacity = 0
	}
	buf := bytes.NewBuffer(make([]byte, 0, capacity))
	if _, err := io.Copy(buf, req.Body); err != nil {
		return "", &storage.StreamReadError{Path: contentPath, Bucket: d.bucket, Err: err}
	}

	opts := &gogithub.RepositoryContentFileOptions{
		Message: gogithub.String(commitMessage),
		Content: buf.Bytes(),
		Branch:  gogithub.String(d.cfg.Ref),
		Committer: &gogithub.CommitAuthor{
			Name:  gogithub.String(committerName),
			Email: gogithub.String(committerEmail),
		},
	}
	if _, _, err := d.client.Repositories.CreateFile(ctx, d.cfg.Owner, d.cfg.Repo, contentPath, opts); err != nil {
		return "", &storage.RemoteWriteError{Path: contentPath, Err: err}
	}

	d.logger.Debug("content committed",
		zap.String("bucket", d.bucket),
		zap.String("path", contentPath),
		zap.String("size", humanize.Bytes(uint64(buf.Len()))),
		zap.String("content_type", req.ContentType),
	)
	return readURL, nil
}

// List fetches the directory contents beneath the configured root path and
// maps each entry to its name. The backend returns richer metadata per
// entry; everything but the name is discarded.
//
// A supplied continuation token is ignored and the returned token is always
// empty: listings larger than one backend response cannot be paged through.
func (d *Driver) List(ctx context.Context, req storage.ListingRequest) (storage.Listing, error) {
	if req.Page != "" {
		d.logger.Debug("listing continuation tokens are not supported, ignoring", zap.String("page", req.Page))
	}

	dirPath := path.Join(d.cfg.Path, req.StorageTopLevel)
	_, dir, _, err := d.client.Repositories.GetContents(ctx, d.cfg.Owner, d.cfg.Repo,
		strings.TrimPrefix(dirPath, "/"),
		&gogithub.RepositoryContentGetOptions{Ref: d.cfg.Ref},
	)
	if err != nil {
		return storage.Listing{}, &storage.RemoteListError{Path: dirPath, Err: err}
	}

	entries := make([]string, 0, len(dir))
	for _, entry := range dir {
		entries = append(entries, entry.GetName())
	}
	return storage.Listing{Entries: entries}, nil
}

// ReadURLPrefix returns the raw-content URL prefix for the configured owner,
// repository and ref. It is fixed at construction; serving from another ref
// requires a new driver instance.
func (d *Driver) ReadURLPrefix() string {
	return d.urlPrefix
}
