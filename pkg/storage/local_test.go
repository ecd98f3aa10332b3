package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shoppurs/pkg/config"
)

func TestLocalStore_PutOverwritesAndGet(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	key, err := s.Put(ctx, "invoices/INV-00000001.pdf", []byte("v1"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "invoices/INV-00000001.pdf", key)

	_, err = s.Put(ctx, "/invoices/INV-00000001.pdf", []byte("v2"), "application/pdf")
	require.NoError(t, err)

	data, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	entries, err := os.ReadDir(filepath.Join(dir, "invoices"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")

	_, err = s.Get(ctx, "invoices/missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_RejectsBadKeys(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "/", "../escape.pdf", "invoices/../../x"} {
		_, err := s.Put(context.Background(), key, []byte("x"), "text/plain")
		assert.Error(t, err, key)
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Backend: "ftp"})
	assert.Error(t, err)

	st, err := New(context.Background(), config.StorageConfig{Backend: "local", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, st)
}
