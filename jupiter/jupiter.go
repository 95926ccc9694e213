// Package jupiter fetches USD prices from the Jupiter price API.
package jupiter

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"hadydotai/cheese-client/httpapi"
)

const (
	DefaultBaseURL = "https://api.jup.ag"
	// batchSize is the most ids the price endpoint accepts in one call.
	batchSize = 100
)

type Client struct {
	http    *httpapi.Client
	baseURL string
	log     *zap.Logger
}

func NewClient(http *httpapi.Client, baseURL string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{http: http, baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

// Prices returns the USD price of every mint Jupiter knows. Mints it returns null for, or
// whose price doesn't parse, are missing from the map.
func (c *Client) Prices(ctx context.Context, mints []string) (map[string]float64, error) {
	out := make(map[string]float64, len(mints))
	for start := 0; start < len(mints); start += batchSize {
		end := min(start+batchSize, len(mints))
		if err := c.fetch(ctx, mints[start:end], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, mints []string, out map[string]float64) error {
	q := url.Values{}
	q.Set("ids", strings.Join(mints, ","))
	q.Set("showExtraInfo", "true")
	body, err := c.http.GetRaw(ctx, c.baseURL+"/price/v2", q)
	if err != nil {
		return fmt.Errorf("jupiter prices: %w", err)
	}
	data := gjson.GetBytes(body, "data")
	if !data.IsObject() {
		return fmt.Errorf("jupiter prices: response has no data object")
	}
	data.ForEach(func(key, item gjson.Result) bool {
		mint := key.String()
		if item.Type == gjson.Null {
			c.log.Warn("jupiter has no price", zap.String("mint", mint))
			return true
		}
		raw := item.Get("price")
		price, err := parsePrice(raw)
		if err != nil {
			c.log.Warn("unparsable jupiter price", zap.String("mint", mint), zap.String("price", raw.Raw), zap.Error(err))
			return true
		}
		out[mint] = price
		return true
	})
	return nil
}

// parsePrice accepts the string form the v2 API uses as well as a bare number.
func parsePrice(r gjson.Result) (float64, error) {
	switch r.Type {
	case gjson.Number:
		return r.Float(), nil
	case gjson.String:
		return strconv.ParseFloat(r.Str, 64)
	}
	return 0, fmt.Errorf("unexpected price type %s", r.Type)
}
