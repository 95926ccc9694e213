// Package meteora fetches CHEESE pools from the Meteora dynamic AMM search API.
package meteora

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"hadydotai/cheese-client/arbitrage"
	"hadydotai/cheese-client/httpapi"
	"hadydotai/cheese-client/pools"
)

const (
	DefaultBaseURL = "https://amm-v2.meteora.ag"
	pageSize       = 50
	// maxPages bounds pagination in case total_count is never reached.
	maxPages = 200
)

var ErrEmptyPage = errors.New("meteora returned an empty page")

// Number accepts both JSON numbers and numeric strings, Meteora uses either depending on
// the field and the API version.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("meteora: bad number %q: %w", s, err)
	}
	*n = Number(v)
	return nil
}

type Pool struct {
	PoolAddress      string   `json:"pool_address"`
	PoolName         string   `json:"pool_name"`
	PoolTokenMints   []string `json:"pool_token_mints"`
	PoolType         string   `json:"pool_type"`
	TotalFeePct      string   `json:"total_fee_pct"`
	PoolTVL          Number   `json:"pool_tvl"`
	DailyVolume      *Number  `json:"daily_volume"`
	TradingVolume    *Number  `json:"trading_volume"`
	PoolTokenAmounts []Number `json:"pool_token_amounts"`
	PoolTokenPrices  []Number `json:"pool_token_prices"`
	Unknown          bool     `json:"unknown"`
	Permissioned     bool     `json:"permissioned"`
	Derived          bool     `json:"derived"`
}

// Volume is the 24h volume, whichever of the two field names the API used.
func (p Pool) Volume() float64 {
	switch {
	case p.DailyVolume != nil:
		return float64(*p.DailyVolume)
	case p.TradingVolume != nil:
		return float64(*p.TradingVolume)
	}
	return 0
}

// FeeRate parses total_fee_pct ("0.25%" or "0.25") into a fraction.
func (p Pool) FeeRate() (float64, error) {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(p.TotalFeePct), "%"))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("pool %s: bad fee %q: %w", p.PoolAddress, p.TotalFeePct, err)
	}
	return v / 100, nil
}

// Normalize converts a two-token pool into the venue-neutral snapshot.
func (p Pool) Normalize() (pools.Pool, error) {
	if len(p.PoolTokenMints) != 2 {
		return pools.Pool{}, fmt.Errorf("pool %s: expected 2 tokens, got %d", p.PoolAddress, len(p.PoolTokenMints))
	}
	if len(p.PoolTokenAmounts) != 2 {
		return pools.Pool{}, fmt.Errorf("pool %s: expected 2 token amounts, got %d", p.PoolAddress, len(p.PoolTokenAmounts))
	}
	fee, err := p.FeeRate()
	if err != nil {
		return pools.Pool{}, err
	}
	return pools.Pool{
		Address:     p.PoolAddress,
		Source:      arbitrage.SourceMeteora,
		Name:        p.PoolName,
		Type:        p.PoolType,
		Mints:       [2]string{p.PoolTokenMints[0], p.PoolTokenMints[1]},
		Amounts:     [2]float64{float64(p.PoolTokenAmounts[0]), float64(p.PoolTokenAmounts[1])},
		FeeRate:     fee,
		ReportedTVL: float64(p.PoolTVL),
		Volume24h:   p.Volume(),
	}, nil
}

type searchResponse struct {
	Data       []Pool `json:"data"`
	Page       int    `json:"page"`
	TotalCount int    `json:"total_count"`
}

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

// SearchPools pages through every pool that includes mint.
func (c *Client) SearchPools(ctx context.Context, mint string) ([]Pool, error) {
	endpoint := c.baseURL + "/pools/search"
	var all []Pool
	for page := 0; page < maxPages; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("size", strconv.Itoa(pageSize))
		q.Set("include_token_mints", mint)

		var resp searchResponse
		if err := c.http.GetJSON(ctx, endpoint, q, &resp); err != nil {
			return nil, fmt.Errorf("meteora page %d: %w", page, err)
		}
		c.log.Debug("meteora page",
			zap.Int("page", page),
			zap.Int("pools", len(resp.Data)),
			zap.Int("total_count", resp.TotalCount),
		)
		all = append(all, resp.Data...)

		if (page+1)*pageSize >= resp.TotalCount {
			return all, nil
		}
		if len(resp.Data) == 0 {
			return all, fmt.Errorf("meteora page %d of %d pools: %w", page, resp.TotalCount, ErrEmptyPage)
		}
	}
	return all, fmt.Errorf("meteora: gave up after %d pages", maxPages)
}

// CheesePools fetches and normalizes every CHEESE pool, dropping the ones that can't be
// represented (more than two tokens, malformed amounts).
func (c *Client) CheesePools(ctx context.Context) ([]pools.Pool, error) {
	raw, err := c.SearchPools(ctx, pools.CheeseMint)
	if err != nil {
		return nil, err
	}
	out := make([]pools.Pool, 0, len(raw))
	for _, p := range raw {
		np, err := p.Normalize()
		if err != nil {
			c.log.Warn("skipping meteora pool", zap.String("pool", p.PoolAddress), zap.Error(err))
			continue
		}
		out = append(out, np)
	}
	c.log.Info("fetched meteora pools", zap.Int("pools", len(out)), zap.Int("skipped", len(raw)-len(out)))
	return out, nil
}
