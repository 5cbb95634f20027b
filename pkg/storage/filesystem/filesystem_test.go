package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pagehub/pagehub/pkg/storage"
)

func newTestDriver(t *testing.T) storage.Driver {
	t.Helper()
	d, err := New(storage.Config{
		Kind:   Kind,
		Bucket: "bucket1",
		Filesystem: storage.FilesystemConfig{
			Root:    t.TempDir(),
			BaseURL: "http://localhost:9000/content",
		},
	}, zap.NewNop())
	require.NoError(t, err)
	return d
}

func TestNewValidation(t *testing.T) {
	_, err := New(storage.Config{Filesystem: storage.FilesystemConfig{BaseURL: "http://x"}}, zap.NewNop())
	require.Error(t, err)

	_, err = New(storage.Config{Filesystem: storage.FilesystemConfig{Root: t.TempDir()}}, zap.NewNop())
	require.Error(t, err)
}

func TestWriteAndList(t *testing.T) {
	d := newTestDriver(t)

	url, err := d.Write(context.Background(), storage.WriteRequest{
		Path:            "sub/foo.txt",
		StorageTopLevel: "store1",
		Body:            strings.NewReader("hello"),
		ContentLength:   5,
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/content/store1/sub/foo.txt", url)
	assert.Equal(t, d.ReadURLPrefix()+"store1/sub/foo.txt", url)

	_, err = d.Write(context.Background(), storage.WriteRequest{
		Path:            "bar.txt",
		StorageTopLevel: "store1",
		Body:            strings.NewReader("world"),
	})
	require.NoError(t, err)

	listing, err := d.List(context.Background(), storage.ListingRequest{StorageTopLevel: "store1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"bar.txt", "sub"}, listing.Entries)
	assert.Empty(t, listing.Page)

	root := d.(*Driver).root
	data, err := os.ReadFile(filepath.Join(root, "store1", "sub", "foo.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestWriteOverwrites(t *testing.T) {
	d := newTestDriver(t)

	for _, content := range []string{"first", "second"} {
		_, err := d.Write(context.Background(), storage.WriteRequest{
			Path:            "foo.txt",
			StorageTopLevel: "store1",
			Body:            strings.NewReader(content),
		})
		require.NoError(t, err)
	}

	root := d.(*Driver).root
	data, err := os.ReadFile(filepath.Join(root, "store1", "foo.txt"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestWriteBadPath(t *testing.T) {
	d := newTestDriver(t)

	_, err := d.Write(context.Background(), storage.WriteRequest{
		Path:            "../outside.txt",
		StorageTopLevel: "store1",
		Body:            strings.NewReader("nope"),
	})
	var badPath *storage.BadPathError
	require.True(t, errors.As(err, &badPath))
}

func TestListMissingNamespace(t *testing.T) {
	d := newTestDriver(t)

	_, err := d.List(context.Background(), storage.ListingRequest{StorageTopLevel: "nothere"})
	var listErr *storage.RemoteListError
	require.True(t, errors.As(err, &listErr))
}
