package storage_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/rentflow/rental-api/internal/config"
	"github.com/rentflow/rental-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalStorage_PutGetDelete(t *testing.T) {
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	n, err := s.Put(ctx, "contracts/abc/lease.html", "text/html", strings.NewReader("<p>lease</p>"))
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	rc, err := s.Get(ctx, "contracts/abc/lease.html")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "<p>lease</p>", string(body))

	require.NoError(t, s.Delete(ctx, "contracts/abc/lease.html"))
	require.NoError(t, s.Delete(ctx, "contracts/abc/lease.html"), "deleting twice is not an error")

	_, err = s.Get(ctx, "contracts/abc/lease.html")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestLocalStorage_KeysStayInsideBase(t *testing.T) {
	base := t.TempDir()
	s, err := storage.NewLocalStorage(base)
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "../../etc/evil", "text/plain", strings.NewReader("x"))
	require.NoError(t, err, "traversal is folded into the base directory")

	_, err = s.Get(context.Background(), "etc/evil")
	assert.NoError(t, err)
}

func TestNewStorage_Modes(t *testing.T) {
	s, err := storage.NewStorage(&config.StorageConfig{Mode: "local", LocalBasePath: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = storage.NewStorage(&config.StorageConfig{Mode: "azure"}, zap.NewNop())
	assert.Error(t, err, "azure without connection string")

	_, err = storage.NewStorage(&config.StorageConfig{Mode: "ftp"}, zap.NewNop())
	assert.Error(t, err)
}
