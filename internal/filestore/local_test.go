package filestore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/finsight/filingrag/internal/config"
)

type memReader struct {
	*bytes.Reader
}

func (m memReader) Close() error { return nil }

func TestLocalStoreSaveOpenRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := New(config.FileStoreConfig{Type: "local", Dir: t.TempDir()})
	require.NoError(t, err)

	payload := []byte(`[{"id":"AAPL_10-K_2024-01-01_item_1_0"}]`)
	key := "chunks/AAPL_10-K_2024-01-01.json"
	require.NoError(t, store.Save(ctx, key, memReader{bytes.NewReader(payload)}, int64(len(payload))))

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	store, err := New(config.FileStoreConfig{Type: "local", Dir: t.TempDir()})
	require.NoError(t, err)

	for _, key := range []string{"..", "../outside.json", "chunks/../../outside.json"} {
		err := store.Save(ctx, key, memReader{bytes.NewReader([]byte("x"))}, 1)
		require.Error(t, err, "key %q", key)
		_, err = store.Open(ctx, key)
		require.Error(t, err, "key %q", key)
	}
}

func TestNewUnknownStoreType(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "ftp"})
	require.Error(t, err)
}
