// Package airtable reads rent-guess listings from an Airtable table.
package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/rentscore/pkg/metrics"
)

const (
	defaultBaseURL = "https://api.airtable.com"
	defaultTimeout = 15 * time.Second
	// Airtable allows five requests per second per base.
	defaultRateLimit = 5
	// maxPages bounds pagination against a misbehaving offset loop.
	maxPages = 10000
)

// Record is one row of the listings table.
type Record struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime,omitempty"`
	Fields      map[string]any `json:"fields"`
}

type page struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

// Client fetches records from one Airtable table.
type Client struct {
	baseURL string
	baseID  string
	table   string
	apiKey  string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a Client for the given base and table.
func New(baseID, table, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		baseID:  baseID,
		table:   table,
		apiKey:  apiKey,
		timeout: defaultTimeout,
		http:    &http.Client{},
		limiter: rate.NewLimiter(defaultRateLimit, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether the client has credentials to call the API.
func (c *Client) Configured() bool {
	return c.baseID != "" && c.apiKey != ""
}

// Records returns every record of the table, following pagination.
func (c *Client) Records(ctx context.Context) ([]Record, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	var (
		out    []Record
		offset string
	)
	for i := 0; i < maxPages; i++ {
		q := url.Values{}
		if offset != "" {
			q.Set("offset", offset)
		}
		p, err := c.fetch(ctx, q)
		if err != nil {
			return nil, err
		}
		out = append(out, p.Records...)
		if p.Offset == "" {
			metrics.UpdateFeedRecords(len(out))
			return out, nil
		}
		offset = p.Offset
	}
	return nil, fmt.Errorf("%w: more than %d pages", ErrUpstream, maxPages)
}

// FirstN returns at most n records in the table's default view order.
func (c *Client) FirstN(ctx context.Context, n int) ([]Record, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	q := url.Values{}
	q.Set("maxRecords", strconv.Itoa(n))
	p, err := c.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	return p.Records, nil
}

func (c *Client) endpoint(q url.Values) string {
	u := fmt.Sprintf("%s/v0/%s/%s", c.baseURL, url.PathEscape(c.baseID), url.PathEscape(c.table))
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) fetch(ctx context.Context, q url.Values) (page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return page{}, fmt.Errorf("rate limit: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(q), nil)
	if err != nil {
		return page{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordFeedRequest("error", time.Since(start).Seconds())
		return page{}, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordFeedRequest(strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return page{}, fmt.Errorf("%w: status=%d, body=%s", ErrUpstream, resp.StatusCode, string(body))
	}

	var p page
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return page{}, fmt.Errorf("decoding response: %w", err)
	}
	return p, nil
}
