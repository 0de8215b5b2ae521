package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestImageStore(t *testing.T, handler http.HandlerFunc) *ImageStore {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := NewImageStore(strings.TrimPrefix(srv.URL, "http://"), "access", "secret", "scans", "us-east-1", false)
	require.NoError(t, err)
	return store
}

func TestDeleteScanReportsEveryFailure(t *testing.T) {
	var posts atomic.Int32
	store := newTestImageStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !r.URL.Query().Has("delete") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		posts.Add(1)
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<DeleteResult>
  <Error><Key>scans/abc/original.png</Key><Code>AccessDenied</Code><Message>denied</Message></Error>
  <Error><Key>scans/abc/thumb.jpg</Key><Code>AccessDenied</Code><Message>denied</Message></Error>
</DeleteResult>`))
	})

	keys := ScanObjectKeys("abc", "image/png")
	err := store.DeleteScan(context.Background(), keys.ImageKey, keys.ThumbnailKey)
	require.Error(t, err)
	assert.Contains(t, err.Error(), keys.ImageKey)
	assert.Contains(t, err.Error(), keys.ThumbnailKey)
	assert.Equal(t, int32(1), posts.Load())
}

func TestDeleteScanWithoutKeys(t *testing.T) {
	var calls atomic.Int32
	store := newTestImageStore(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	assert.NoError(t, store.DeleteScan(context.Background(), "", ""))
	assert.Zero(t, calls.Load())
}
