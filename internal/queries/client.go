package queries

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"command-center-go/internal/logger"
	"command-center-go/internal/types"
)

const queriesPath = "/api/queries"

// Client calls GET /api/queries on the remote query source.
// It does not retry, cache or impose timeouts beyond those of its http.Client.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

type Option func(*Client)

// WithHTTPClient swaps the transport, e.g. to apply a caller-chosen timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		log:     logger.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.Component("queries-client")
	return c
}

// URL builds the request URL; driverID is sent only when non-empty.
func (c *Client) URL(driverID string) string {
	u := c.baseURL + queriesPath
	if driverID != "" {
		// encodeURIComponent-style: spaces as %20, not '+'
		u += "?driverId=" + strings.ReplaceAll(url.QueryEscape(driverID), "+", "%20")
	}
	return u
}

// wire envelope; fields stay raw so the shape can be checked after decoding.
type envelope struct {
	Success json.RawMessage `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

// Fetch returns the raw queries, optionally scoped to one driver.
// The caller trims driverID and passes "" when no filter is active.
func (c *Client) Fetch(ctx context.Context, driverID string) ([]types.RawQuery, error) {
	endpoint := c.URL(driverID)
	log := c.log.WithField("url", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Kind: ErrDecode, Message: "invalid response", Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithField("error", err.Error()).Warn("queries request failed")
		return nil, &Error{Kind: ErrDecode, Message: "invalid response", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: ErrDecode, Message: "invalid response", Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	log = log.WithField("http_status", resp.StatusCode).WithField("duration_ms", time.Since(start).Milliseconds())

	if !json.Valid(body) {
		log.Warn("queries response is not JSON")
		return nil, &Error{Kind: ErrDecode, Message: "invalid JSON response", Status: resp.StatusCode}
	}

	// a non-object body leaves env empty and falls through to the checks below
	var env envelope
	_ = json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := &Error{
			Kind:    ErrRequest,
			Message: fmt.Sprintf("request failed (%d)", resp.StatusCode),
			Status:  resp.StatusCode,
		}
		var detail types.ErrorDetail
		if len(env.Error) > 0 && json.Unmarshal(env.Error, &detail) == nil {
			e.Body = &types.ErrorBody{Success: false, Error: detail}
			if detail.Message != "" {
				e.Message = detail.Message
			}
		}
		log.WithField("error", e.Message).Warn("queries request rejected")
		return nil, e
	}

	if !bytes.Equal(bytes.TrimSpace(env.Success), []byte("true")) || !isArray(env.Data) {
		log.Warn("queries response has unexpected shape")
		return nil, &Error{Kind: ErrShape, Message: "invalid response format", Status: resp.StatusCode}
	}

	var data []types.RawQuery
	if err := json.Unmarshal(env.Data, &data); err != nil {
		log.WithField("error", err.Error()).Warn("queries data does not match record shape")
		return nil, &Error{Kind: ErrShape, Message: "invalid response format", Status: resp.StatusCode, Err: err}
	}
	if data == nil {
		data = []types.RawQuery{}
	}

	log.WithField("count", len(data)).Debug("queries fetched")
	return data, nil
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
