// Package raydium reads pool listings and token info from the Raydium v3 API.
package raydium

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
	DefaultBaseURL = "https://api-v3.raydium.io"
	pageSize       = 1000
	maxPages       = 20
)

var ErrNotSuccessful = errors.New("raydium api returned success=false")

type MintItem struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
}

type DayStats struct {
	Volume float64 `json:"volume"`
}

type PoolDetailed struct {
	Type        string   `json:"type"`
	ProgramID   string   `json:"programId"`
	ID          string   `json:"id"`
	MintA       MintItem `json:"mintA"`
	MintB       MintItem `json:"mintB"`
	Price       float64  `json:"price"`
	MintAmountA float64  `json:"mintAmountA"`
	MintAmountB float64  `json:"mintAmountB"`
	FeeRate     float64  `json:"feeRate"`
	TVL         float64  `json:"tvl"`
	Day         DayStats `json:"day"`
}

// Normalize converts the listing into the venue-neutral snapshot. Raydium reports
// feeRate as a fraction already and mint amounts in UI units.
func (p PoolDetailed) Normalize() (pools.Pool, error) {
	if p.ID == "" {
		return pools.Pool{}, errors.New("raydium pool without id")
	}
	if p.MintA.Address == "" || p.MintB.Address == "" {
		return pools.Pool{}, fmt.Errorf("raydium pool %s is missing a mint", p.ID)
	}
	return pools.Pool{
		Address:     p.ID,
		Source:      arbitrage.SourceRaydium,
		Name:        p.MintA.Symbol + "-" + p.MintB.Symbol,
		Type:        p.Type,
		Mints:       [2]string{p.MintA.Address, p.MintB.Address},
		Symbols:     [2]string{p.MintA.Symbol, p.MintB.Symbol},
		Amounts:     [2]float64{p.MintAmountA, p.MintAmountB},
		FeeRate:     p.FeeRate,
		ReportedTVL: p.TVL,
		Volume24h:   p.Day.Volume,
	}, nil
}

type poolsResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Data    struct {
		Count       int            `json:"count"`
		Data        []PoolDetailed `json:"data"`
		HasNextPage bool           `json:"hasNextPage"`
	} `json:"data"`
}

type mintsResponse struct {
	ID      string      `json:"id"`
	Success bool        `json:"success"`
	Data    []*MintItem `json:"data"`
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

// PoolsByMint lists every pool, of any type, that has mint on one side.
func (c *Client) PoolsByMint(ctx context.Context, mint string) ([]PoolDetailed, error) {
	endpoint := c.baseURL + "/pools/info/mint"
	var all []PoolDetailed
	for page := 1; page <= maxPages; page++ {
		q := url.Values{}
		q.Set("mint1", mint)
		q.Set("poolType", "all")
		q.Set("poolSortField", "default")
		q.Set("sortType", "desc")
		q.Set("pageSize", strconv.Itoa(pageSize))
		q.Set("page", strconv.Itoa(page))

		var resp poolsResponse
		if err := c.http.GetJSON(ctx, endpoint, q, &resp); err != nil {
			return nil, fmt.Errorf("raydium pools page %d: %w", page, err)
		}
		if !resp.Success {
			return nil, fmt.Errorf("raydium pools page %d: %w", page, ErrNotSuccessful)
		}
		c.log.Debug("raydium page",
			zap.Int("page", page),
			zap.Int("pools", len(resp.Data.Data)),
			zap.Int("count", resp.Data.Count),
		)
		all = append(all, resp.Data.Data...)
		if !resp.Data.HasNextPage || len(resp.Data.Data) == 0 {
			return all, nil
		}
	}
	return all, fmt.Errorf("raydium: gave up after %d pages", maxPages)
}

// CheesePools fetches and normalizes the CHEESE pools.
func (c *Client) CheesePools(ctx context.Context) ([]pools.Pool, error) {
	raw, err := c.PoolsByMint(ctx, pools.CheeseMint)
	if err != nil {
		return nil, err
	}
	out := make([]pools.Pool, 0, len(raw))
	for _, p := range raw {
		np, err := p.Normalize()
		if err != nil {
			c.log.Warn("skipping raydium pool", zap.Error(err))
			continue
		}
		out = append(out, np)
	}
	c.log.Info("fetched raydium pools", zap.Int("pools", len(out)), zap.Int("skipped", len(raw)-len(out)))
	return out, nil
}

// MintInfo looks mints up in one request. The result is positional and unknown mints come
// back as nil.
func (c *Client) MintInfo(ctx context.Context, mints []string) ([]*MintItem, error) {
	if len(mints) == 0 {
		return nil, nil
	}
	q := url.Values{}
	q.Set("mints", strings.Join(mints, ","))
	var resp mintsResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/mint/ids", q, &resp); err != nil {
		return nil, fmt.Errorf("raydium mint ids: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("raydium mint ids: %w", ErrNotSuccessful)
	}
	return resp.Data, nil
}

// Symbols is MintInfo reduced to a mint to symbol map.
func (c *Client) Symbols(ctx context.Context, mints []string) (map[string]string, error) {
	items, err := c.MintInfo(ctx, mints)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(items))
	for _, it := range items {
		if it == nil || it.Address == "" || it.Symbol == "" {
			continue
		}
		out[it.Address] = it.Symbol
	}
	return out, nil
}
