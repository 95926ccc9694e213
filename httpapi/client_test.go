package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSONDecodesBodyAndSendsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("page"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"name":"cheese","count":3}`))
	}))
	defer srv.Close()

	c := New(WithRate(0), WithUserAgent("test-agent"), WithHTTPClient(srv.Client()))
	var out struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	err := c.GetJSON(context.Background(), srv.URL, url.Values{"page": {"7"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "cheese", out.Name)
	assert.Equal(t, 3, out.Count)
}

func TestNon2xxIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(WithRate(0))
	_, err := c.GetRaw(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Contains(t, se.Body, "slow down")
}

func TestGetJSONReportsDecodeErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	var out map[string]any
	err := New(WithRate(0)).GetJSON(context.Background(), srv.URL, nil, &out)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnexpectedStatus))
}

func TestCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(WithRate(0)).GetRaw(ctx, srv.URL, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
