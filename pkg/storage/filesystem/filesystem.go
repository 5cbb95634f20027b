// Package filesystem implements a local-disk storage driver, mainly used for
// development and tests. Content lands under a root directory and read URLs
// are derived from a configured base URL that some other process serves.
package filesystem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/pagehub/pagehub/pkg/storage"
)

// Kind is the configuration discriminator this driver registers under.
const Kind = "filesystem"

func init() {
	storage.Register(Kind, New)
}

// Driver stores content beneath a root directory.
type Driver struct {
	root      string
	bucket    string
	urlPrefix string
	logger    *zap.Logger
}

var _ storage.Driver = (*Driver)(nil)

// New validates cfg.Filesystem and constructs the driver. The root directory
// is created if it does not exist yet.
func New(cfg storage.Config, logger *zap.Logger) (storage.Driver, error) {
	fs := cfg.Filesystem
	if fs.Root == "" {
		return nil, errors.New("filesystem: root directory is required")
	}
	if fs.BaseURL == "" {
		return nil, errors.New("filesystem: base url is required")
	}
	if err := os.MkdirAll(fs.Root, 0o755); err != nil {
		return nil, &storage.SetupError{Err: err}
	}

	return &Driver{
		root:      fs.Root,
		bucket:    cfg.Bucket,
		urlPrefix: strings.TrimSuffix(fs.BaseURL, "/") + "/",
		logger:    logger,
	}, nil
}

// Write drains the stream and writes it to disk in one file creation,
// overwriting any previous content at the path.
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
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := filepath.Join(d.root, filepath.FromSlash(contentPath))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", &storage.RemoteWriteError{Path: contentPath, Err: err}
	}
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return "", &storage.RemoteWriteError{Path: contentPath, Err: err}
	}

	d.logger.Debug("content stored",
		zap.String("bucket", d.bucket),
		zap.String("path", contentPath),
		zap.String("size", humanize.Bytes(uint64(buf.Len()))),
	)
	return readURL, nil
}

// List returns the entry names directly beneath the namespace directory, in
// directory order. Continuation tokens are not used: listings always
// complete in one call.
func (d *Driver) List(ctx context.Context, req storage.ListingRequest) (storage.Listing, error) {
	if err := ctx.Err(); err != nil {
		return storage.Listing{}, err
	}

	dir := filepath.Join(d.root, filepath.FromSlash(req.StorageTopLevel))
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return storage.Listing{}, &storage.RemoteListError{Path: req.StorageTopLevel, Err: err}
	}

	entries := make([]string, 0, len(dirEntries))
	for _, entry := range dirEntries {
		entries = append(entries, entry.Name())
	}
	return storage.Listing{Entries: entries}, nil
}

// ReadURLPrefix returns the configured base URL with a trailing slash.
func (d *Driver) ReadURLPrefix() string {
	return d.urlPrefix
}

func (d *Driver) String() string {
	return fmt.Sprintf("filesystem driver at %s", d.root)
}
