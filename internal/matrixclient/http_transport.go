package matrixclient

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
)

// APIError is a non-2xx answer from the matrix API.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("matrix api %d %s: %s", e.Status, e.Code, e.Message)
}

// HTTPTransport implements API against the catalog HTTP server.
type HTTPTransport struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPTransport creates a transport. token is sent as a bearer token on write calls.
func NewHTTPTransport(baseURL, token string, timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPTransport{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details json.RawMessage `json:"details"`
}

type wireCell struct {
	ItemType  string `json:"item_type"`
	ItemID    string `json:"item_id"`
	PackageID uint   `json:"package_id"`
	Enabled   bool   `json:"enabled"`
}

func toWire(c Change) wireCell {
	return wireCell{ItemType: c.ItemType, ItemID: c.ItemID, PackageID: c.PackageID, Enabled: c.Enabled}
}

func (t *HTTPTransport) Aggregate(ctx context.Context, product string) (*Snapshot, error) {
	env, err := t.do(ctx, http.MethodGet, t.productPath(product, "matrix"), nil)
	if err != nil {
		return nil, err
	}

	var agg struct {
		Product struct {
			Code string `json:"code"`
		} `json:"product"`
		Packages []Package  `json:"packages"`
		Features []Item     `json:"features"`
		Menus    []Item     `json:"menus"`
		Matrix   []wireCell `json:"matrix"`
	}
	if err := json.Unmarshal(env.Data, &agg); err != nil {
		return nil, fmt.Errorf("decode matrix aggregate: %w", err)
	}

	snap := &Snapshot{
		ProductCode: agg.Product.Code,
		Packages:    agg.Packages,
		Features:    agg.Features,
		Menus:       agg.Menus,
		Cells:       make([]Change, 0, len(agg.Matrix)),
	}
	for _, c := range agg.Matrix {
		snap.Cells = append(snap.Cells, Change{
			CellKey: CellKey{ItemType: c.ItemType, ItemID: c.ItemID, PackageID: c.PackageID},
			Enabled: c.Enabled,
		})
	}
	return snap, nil
}

func (t *HTTPTransport) Toggle(ctx context.Context, product string, change Change) (bool, error) {
	env, err := t.do(ctx, http.MethodPatch, t.productPath(product, "matrix/toggle"), toWire(change))
	if err != nil {
		return false, err
	}

	var cell wireCell
	if err := json.Unmarshal(env.Data, &cell); err != nil {
		return false, fmt.Errorf("decode toggled cell: %w", err)
	}
	return cell.Enabled, nil
}

func (t *HTTPTransport) BulkUpsert(ctx context.Context, product string, changes []Change) (int, error) {
	body := struct {
		Changes []wireCell `json:"changes"`
	}{Changes: make([]wireCell, 0, len(changes))}
	for _, c := range changes {
		body.Changes = append(body.Changes, toWire(c))
	}

	env, err := t.do(ctx, http.MethodPost, t.productPath(product, "matrix/bulk"), body)
	if err != nil {
		return 0, err
	}
	if env.Count == nil {
		return len(changes), nil
	}
	return *env.Count, nil
}

func (t *HTTPTransport) productPath(product, suffix string) string {
	return t.baseURL + "/catalog/products/" + url.PathEscape(product) + "/" + suffix
}

func (t *HTTPTransport) do(ctx context.Context, method, endpoint string, payload interface{}) (*envelope, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Error, Details: env.Details}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	return &env, nil
}
