// Package upstream fetches the flat menu and feature lists from the hierarchy source of truth.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"catalog/internal/model"

	"go.uber.org/zap"
)

// ErrUnavailable wraps every failure to obtain a usable snapshot.
var ErrUnavailable = errors.New("upstream hierarchy source unavailable")

const maxBodyBytes = 16 << 20

// Node is one entry as sent by the upstream source. Field names follow the upstream payload,
// with the common aliases accepted.
type Node struct {
	ID          model.NodeID  `json:"id"`
	ParentID    *model.NodeID `json:"parent_id"`
	Type        string        `json:"type"`
	Title       string        `json:"title"`
	Name        string        `json:"name"`
	OrderNumber *int          `json:"order_number"`
	Order       *int          `json:"order"`
	Route       string        `json:"route"`
	Path        string        `json:"path"`
	Icon        string        `json:"icon"`
	ProductCode string        `json:"product_code"`
	IsActive    *bool         `json:"is_active"`
}

// DisplayTitle prefers title over name.
func (n Node) DisplayTitle() string {
	if n.Title != "" {
		return n.Title
	}
	return n.Name
}

// SuppliedOrder returns the order sent upstream, 0 when absent.
func (n Node) SuppliedOrder() int {
	switch {
	case n.OrderNumber != nil:
		return *n.OrderNumber
	case n.Order != nil:
		return *n.Order
	}
	return 0
}

// Active defaults to true when the upstream omits the flag.
func (n Node) Active() bool {
	return n.IsActive == nil || *n.IsActive
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		logger:     logger,
	}
}

// FetchNodes performs the single snapshot call for one hierarchy kind of one product:
// GET {base}/{kind}s?product_code=CODE. The body may be a bare array or wrapped in {"data": [...]}.
func (c *Client) FetchNodes(ctx context.Context, kind, productCode string) ([]Node, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: UPSTREAM_BASE_URL is not configured", ErrUnavailable)
	}

	endpoint := fmt.Sprintf("%s/%ss?product_code=%s", c.baseURL, kind, url.QueryEscape(productCode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	c.logger.Debug("upstream hierarchy fetched",
		zap.String("kind", kind),
		zap.String("product_code", productCode),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d %s", ErrUnavailable, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	nodes, err := decodeNodes(body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return nodes, nil
}

func decodeNodes(body []byte) ([]Node, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}
	if body[0] == '[' {
		var nodes []Node
		if err := json.Unmarshal(body, &nodes); err != nil {
			return nil, err
		}
		return nodes, nil
	}

	var wrapped struct {
		Data *[]Node `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Data == nil {
		return nil, errors.New(`response has no "data" array`)
	}
	return *wrapped.Data, nil
}
