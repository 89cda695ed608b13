package oembed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		Endpoint:         srv.URL + "/oembed",
		ThumbnailBaseURL: srv.URL + "/vi",
		HTTPClient:       srv.Client(),
	})
}

func TestFetchMetadata(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oembed", r.URL.Path)
		assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", r.URL.Query().Get("url"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"Rick Astley - Never Gonna Give You Up","author_name":"Rick Astley","type":"video"}`))
	})

	meta, err := c.FetchMetadata(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "Rick Astley - Never Gonna Give You Up", meta.Title)
	assert.Equal(t, "Rick Astley", meta.Author)
}

func TestFetchMetadata_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.FetchMetadata(context.Background(), "missing1234")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestFetchMetadata_BadBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})

	_, err := c.FetchMetadata(context.Background(), "dQw4w9WgXcQ")
	assert.ErrorIs(t, err, model.ErrParseFailure)
}

func TestExists(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path == "/vi/dQw4w9WgXcQ/hqdefault.jpg" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	ok, err := c.Exists(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Exists(context.Background(), "missing1234")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExists_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Exists(context.Background(), "dQw4w9WgXcQ")
	assert.ErrorIs(t, err, model.ErrNetworkFailure)
}
