// internal/adapters/backend/client.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"flexliving_reviews/internal/adapters/observability"
	"flexliving_reviews/internal/domain"
)

// Client talks to the reviews backend. Each call is a single request:
// no retries and no backoff.
type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base string, rps int, timeout time.Duration) (*Client, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return nil, fmt.Errorf("reviews API base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("reviews API base URL: %w", err)
	}
	if rps <= 0 {
		rps = 10
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base: base,
		hc:   &http.Client{Timeout: timeout},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- Public API ----

type reviewsEnvelope struct {
	Reviews []domain.Review `json:"reviews"`
}

type propertiesEnvelope struct {
	Properties []domain.Property `json:"properties"`
}

func (c *Client) GetReviews(ctx context.Context, q domain.ReviewsQuery) ([]domain.Review, error) {
	v := url.Values{}
	if q.Property != "" {
		v.Set("property", q.Property)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Rating != "" {
		v.Set("rating", q.Rating)
	}
	u := c.base + "/reviews/hostaway"
	if enc := v.Encode(); enc != "" {
		u += "?" + enc
	}

	var out reviewsEnvelope
	if err := c.do(ctx, http.MethodGet, u, "reviews", nil, &out); err != nil {
		return nil, err
	}
	if out.Reviews == nil {
		out.Reviews = []domain.Review{}
	}
	return out.Reviews, nil
}

func (c *Client) SetApproval(ctx context.Context, reviewID string, approved bool) error {
	if reviewID == "" {
		return fmt.Errorf("review id is required")
	}
	u := fmt.Sprintf("%s/reviews/%s/approve", c.base, url.PathEscape(reviewID))
	body := struct {
		IsApproved bool `json:"isApproved"`
	}{approved}
	return c.do(ctx, http.MethodPatch, u, "approve", body, nil)
}

func (c *Client) GetProperties(ctx context.Context) ([]domain.Property, error) {
	var out propertiesEnvelope
	if err := c.do(ctx, http.MethodGet, c.base+"/properties", "properties", nil, &out); err != nil {
		return nil, err
	}
	if out.Properties == nil {
		out.Properties = []domain.Property{}
	}
	return out.Properties, nil
}

// ---- Internals ----

var (
	ErrNotFound   = fmt.Errorf("reviews api: %w", domain.ErrNotFound)
	ErrBadRequest = errors.New("reviews api: bad request")
)

// do sends one request with client-side rate limiting and decodes a JSON
// body into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, u, endpoint string, in, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "flexliving-reviews-dashboard/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("reviews_api", endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s %s: %v", domain.ErrBackend, method, endpoint, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("reviews_api", endpoint, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			// acknowledgement only; body carries nothing we need
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode %s: %v", domain.ErrBackend, endpoint, err)
		}
		return nil

	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound

	case resp.StatusCode == http.StatusBadRequest:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s", ErrBadRequest, strings.TrimSpace(string(b)))

	default:
		// read a small error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: bad status %d: %s", domain.ErrBackend, resp.StatusCode, strings.TrimSpace(string(b)))
	}
}
