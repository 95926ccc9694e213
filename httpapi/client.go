// Package httpapi is the small HTTP layer shared by the pool and price fetchers: paced
// GET requests with JSON decoding and typed status errors.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrUnexpectedStatus is matched by every *StatusError.
var ErrUnexpectedStatus = errors.New("unexpected http status")

type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: status %d: %s", e.URL, e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool { return target == ErrUnexpectedStatus }

const (
	defaultTimeout   = 20 * time.Second
	defaultRate      = 10 // requests per second
	defaultUserAgent = "cheese-client"
	maxErrorBody     = 512
)

type Client struct {
	http      *http.Client
	limiter   ratelimit.Limiter
	log       *zap.Logger
	userAgent string
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithRate caps outgoing requests per second. Zero or less removes the cap.
func WithRate(perSecond int) Option {
	return func(cl *Client) {
		if perSecond <= 0 {
			cl.limiter = ratelimit.NewUnlimited()
			return
		}
		cl.limiter = ratelimit.New(perSecond)
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.log = l
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(cl *Client) { cl.userAgent = ua }
}

func New(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: defaultTimeout},
		limiter:   ratelimit.New(defaultRate),
		log:       zap.NewNop(),
		userAgent: defaultUserAgent,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// GetRaw performs a paced GET and returns the body of a 2xx response.
func (c *Client) GetRaw(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	u := endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.limiter.Take()
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", endpoint, err)
	}
	c.log.Debug("http get",
		zap.String("url", u),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("took", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &StatusError{URL: endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// GetJSON is GetRaw followed by decoding into out.
func (c *Client) GetJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	body, err := c.GetRaw(ctx, endpoint, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

// Unmarshal decodes with the same JSON configuration the client uses.
func Unmarshal(data []byte, out any) error {
	return json.Unmarshal(data, out)
}
