package storage

import (
	"errors"
	"fmt"
)

// Configuration errors. All of them are fatal at construction time: no
// partially configured driver is ever returned.
var (
	// ErrUnsupportedAuthType is returned when the configured authentication
	// mode is absent or not one of the supported values.
	ErrUnsupportedAuthType = errors.New("storage: unsupported auth type")

	// ErrMissingCredential is returned when the credential token is absent
	// or empty.
	ErrMissingCredential = errors.New("storage: missing credential token")

	// ErrMissingIdentifier is returned when the backend owner or repository
	// identifier is absent.
	ErrMissingIdentifier = errors.New("storage: missing backend identifier")
)

// SetupError reports that the authenticated backend client could not be
// initialized with the given credentials. Backend clients may defer parts of
// their setup until the first remote call, so callers must treat a
// SetupError surfacing later as equivalent to a construction-time failure.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("storage: client setup failed: %v", e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// BadPathError rejects a caller-supplied path before any network activity.
// The caller can recover by supplying a corrected path.
type BadPathError struct {
	Path string
}

func (e *BadPathError) Error() string {
	return fmt.Sprintf("storage: invalid path %q", e.Path)
}

// StreamReadError wraps an upstream I/O failure observed while buffering a
// write. The write is guaranteed not to have reached the backend.
type StreamReadError struct {
	Path   string
	Bucket string
	Err    error
}

func (e *StreamReadError) Error() string {
	return fmt.Sprintf("storage: reading stream for %q in bucket %q: %v", e.Path, e.Bucket, e.Err)
}

func (e *StreamReadError) Unwrap() error { return e.Err }

// RemoteWriteError reports that the backend rejected or failed the commit
// call. Err carries the backend's raw diagnostic. The driver does not retry;
// retry policy belongs to the caller.
type RemoteWriteError struct {
	Path string
	Err  error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("storage: remote write of %q failed: %v", e.Path, e.Err)
}

func (e *RemoteWriteError) Unwrap() error { return e.Err }

// RemoteListError reports that the backend rejected or failed a directory
// listing call.
type RemoteListError struct {
	Path string
	Err  error
}

func (e *RemoteListError) Error() string {
	return fmt.Sprintf("storage: remote listing of %q failed: %v", e.Path, e.Err)
}

func (e *RemoteListError) Unwrap() error { return e.Err }
