package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// A Driver stores opaque byte streams at named paths under a bucket and
// serves them back through a public read URL. Implementations are selected
// at runtime by the `kind` discriminator in Config; every backend exposes
// the same contract regardless of what actually holds the bytes.
type Driver interface {
	// Write consumes the request stream in full, then stores the content in
	// one atomic backend call. It returns the URL at which the content is
	// readable. The URL is only returned after the backend accepted the
	// content; a failed write leaves no partial state behind.
	Write(ctx context.Context, req WriteRequest) (string, error)

	// List returns the names of the entries directly beneath the given
	// storage top-level namespace.
	List(ctx context.Context, req ListingRequest) (Listing, error)

	// ReadURLPrefix returns the stable URL prefix all read URLs of this
	// driver instance share. It never performs network I/O.
	ReadURLPrefix() string
}

// WriteRequest carries one upload. It is owned by the Write call that
// receives it; Body is drained exactly once and not retained.
type WriteRequest struct {
	// Path is the caller-supplied relative path. It must pass IsPathValid.
	Path string

	// StorageTopLevel is the bucket-scoped namespace the path lives under.
	StorageTopLevel string

	// Body is the content stream.
	Body io.Reader

	// ContentLength is the declared size in bytes, used for buffer sizing
	// and diagnostics. Backends that need exact sizes still count the
	// drained bytes themselves.
	ContentLength int64

	// ContentType is the declared media type. Informational only.
	ContentType string
}

// ListingRequest asks for the entries beneath a storage top-level namespace.
type ListingRequest struct {
	StorageTopLevel string

	// Page is an opaque continuation token from a previous Listing.
	Page string
}

// Listing is the uniform listing shape returned by every driver.
type Listing struct {
	// Entries are the names directly beneath the requested namespace, in
	// the order the backend returned them.
	Entries []string

	// Page is the continuation token for the next call. Empty means the
	// listing is complete.
	Page string
}

// Config is the raw per-bucket driver configuration as loaded by the hub.
// Exactly one backend section is consulted, chosen by Kind.
type Config struct {
	Kind   string `mapstructure:"kind"`
	Bucket string `mapstructure:"bucket"`

	GitHub     GitHubConfig     `mapstructure:"github"`
	Filesystem FilesystemConfig `mapstructure:"filesystem"`
}

// GitHubConfig configures the version-control-backed driver.
type GitHubConfig struct {
	AuthType string `mapstructure:"authtype"`
	Token    string `mapstructure:"token"`
	BaseURL  string `mapstructure:"baseurl"`
	Owner    string `mapstructure:"owner"`
	Repo     string `mapstructure:"repo"`
	Path     string `mapstructure:"path"`
	Ref      string `mapstructure:"ref"`
}

// FilesystemConfig configures the local filesystem driver.
type FilesystemConfig struct {
	Root    string `mapstructure:"root"`
	BaseURL string `mapstructure:"baseurl"`
}

// Factory builds a Driver from a Config.
type Factory func(cfg Config, logger *zap.Logger) (Driver, error)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Factory)
)

// Register makes a driver factory available under the given kind. It is
// meant to be called from driver package init functions.
func Register(kind string, factory Factory) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if factory == nil {
		panic("storage: Register factory is nil")
	}
	if _, dup := drivers[kind]; dup {
		panic("storage: Register called twice for driver " + kind)
	}
	drivers[kind] = factory
}

// Kinds returns the registered driver kinds, sorted.
func Kinds() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	kinds := make([]string, 0, len(drivers))
	for kind := range drivers {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Open constructs the driver named by cfg.Kind. Construction validates the
// backend section and sets up the authenticated client; a driver returned
// without error is ready for concurrent use.
func Open(cfg Config, logger *zap.Logger) (Driver, error) {
	driversMu.RLock()
	factory, ok := drivers[cfg.Kind]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown driver kind %q (registered: %s)", cfg.Kind, strings.Join(Kinds(), ", "))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return factory(cfg, logger)
}

// IsPathValid reports whether a caller-supplied relative path is acceptable
// for storage. The check is a bare substring match: any path containing ".."
// is rejected, everything else passes. It does not normalize the path.
func IsPathValid(path string) bool {
	return !strings.Contains(path, "..")
}
