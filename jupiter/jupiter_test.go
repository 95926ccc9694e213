package jupiter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"hadydotai/cheese-client/httpapi"
)

func TestPricesSkipsNullAndGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/price/v2", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("showExtraInfo"))
		fmt.Fprint(w, `{
			"data": {
				"SOL": {"id": "SOL", "type": "derivedPrice", "price": "150.25", "extraInfo": {"confidenceLevel": "high"}},
				"USDC": {"id": "USDC", "type": "derivedPrice", "price": 1.0001},
				"DEAD": null,
				"BAD": {"id": "BAD", "price": "n/a"}
			},
			"timeTaken": 0.003
		}`)
	}))
	defer srv.Close()

	core, logs := observer.New(zap.WarnLevel)
	c := NewClient(httpapi.New(httpapi.WithRate(0)), srv.URL, zap.New(core))
	prices, err := c.Prices(context.Background(), []string{"SOL", "USDC", "DEAD", "BAD"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"SOL": 150.25, "USDC": 1.0001}, prices)
	assert.Equal(t, 2, logs.Len())
}

func TestPricesBatchesIDs(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		assert.LessOrEqual(t, len(ids), batchSize)
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = fmt.Sprintf(`%q: {"id": %q, "price": "1"}`, id, id)
		}
		fmt.Fprintf(w, `{"data": {%s}}`, strings.Join(parts, ","))
	}))
	defer srv.Close()

	mints := make([]string, 250)
	for i := range mints {
		mints[i] = fmt.Sprintf("mint%03d", i)
	}
	c := NewClient(httpapi.New(httpapi.WithRate(0)), srv.URL, nil)
	prices, err := c.Prices(context.Background(), mints)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, prices, 250)
}

func TestPricesRejectsShapelessResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": "bad request"}`)
	}))
	defer srv.Close()

	c := NewClient(httpapi.New(httpapi.WithRate(0)), srv.URL, nil)
	_, err := c.Prices(context.Background(), []string{"x"})
	assert.Error(t, err)
}

func TestPricesEmptyInput(t *testing.T) {
	c := NewClient(httpapi.New(httpapi.WithRate(0)), "http://127.0.0.1:0", nil)
	prices, err := c.Prices(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, prices)
}
