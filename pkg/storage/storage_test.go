package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIsPathValid(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"foo.txt", true},
		{"", true},
		{"a/b/c.txt", true},
		{"./foo.txt", true},
		{"a/./b", true},
		{"..", false},
		{"../etc/passwd", false},
		{"a/../b", false},
		{"a/..", false},
		{"weird..name.txt", false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, IsPathValid(tc.path))
		})
	}
}

type nopDriver struct{}

func (nopDriver) Write(context.Context, WriteRequest) (string, error) { return "", nil }
func (nopDriver) List(context.Context, ListingRequest) (Listing, error) {
	return Listing{}, nil
}
func (nopDriver) ReadURLPrefix() string { return "" }

func TestOpen(t *testing.T) {
	Register("nop", func(cfg Config, logger *zap.Logger) (Driver, error) {
		return nopDriver{}, nil
	})

	d, err := Open(Config{Kind: "nop"}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, d)

	_, err = Open(Config{Kind: "bogus"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver kind")

	assert.Contains(t, Kinds(), "nop")
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("dup", func(cfg Config, logger *zap.Logger) (Driver, error) {
		return nopDriver{}, nil
	})
	assert.Panics(t, func() {
		Register("dup", func(cfg Config, logger *zap.Logger) (Driver, error) {
			return nopDriver{}, nil
		})
	})
}
