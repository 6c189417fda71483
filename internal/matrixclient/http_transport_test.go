package matrixclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransportAggregate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/catalog/products/RENTVIX/matrix", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"data":{
			"product":{"code":"RENTVIX"},
			"packages":[{"id":1,"name":"Basic","status":"active"},{"id":2,"name":"Legacy","status":"inactive"}],
			"features":[{"id":"F1","parent_id":null,"level":1,"title":"Fleet"}],
			"menus":[],
			"matrix":[{"item_type":"feature","item_id":"F1","package_id":1,"enabled":true}]
		}}`))
	}))
	defer srv.Close()

	snap, err := NewHTTPTransport(srv.URL, "", time.Second).Aggregate(context.Background(), "RENTVIX")
	require.NoError(t, err)
	assert.Equal(t, "RENTVIX", snap.ProductCode)
	assert.Len(t, snap.Packages, 2)
	assert.Equal(t, "inactive", snap.Packages[1].Status)
	assert.Equal(t, []Change{{CellKey: CellKey{ItemType: "feature", ItemID: "F1", PackageID: 1}, Enabled: true}}, snap.Cells)
}

func TestHTTPTransportWrites(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)

		switch r.URL.Path {
		case "/catalog/products/RENTVIX/matrix/toggle":
			assert.Equal(t, http.MethodPatch, r.Method)
			assert.JSONEq(t, `{"item_type":"menu","item_id":"M1","package_id":2,"enabled":true}`, string(raw))
			_, _ = w.Write([]byte(`{"success":true,"data":{"item_type":"menu","item_id":"M1","package_id":2,"enabled":true}}`))
		case "/catalog/products/RENTVIX/matrix/bulk":
			assert.Equal(t, http.MethodPost, r.Method)
			var body struct {
				Changes []json.RawMessage `json:"changes"`
			}
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.Len(t, body.Changes, 2)
			_, _ = w.Write([]byte(`{"success":true,"count":2}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	tr := NewHTTPTransport(srv.URL+"/", "tkn", time.Second)
	ctx := context.Background()

	stored, err := tr.Toggle(ctx, "RENTVIX", Change{CellKey: CellKey{ItemType: "menu", ItemID: "M1", PackageID: 2}, Enabled: true})
	require.NoError(t, err)
	assert.True(t, stored)

	count, err := tr.BulkUpsert(ctx, "RENTVIX", []Change{
		{CellKey: CellKey{ItemType: "menu", ItemID: "M1", PackageID: 1}, Enabled: true},
		{CellKey: CellKey{ItemType: "feature", ItemID: "F1", PackageID: 1}, Enabled: false},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestHTTPTransportValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"status":"error","status_code":422,"success":false,
			"error":"packages not owned by product: 999","code":"validation_failed",
			"details":{"invalid_package_ids":[999]}}`))
	}))
	defer srv.Close()

	_, err := NewHTTPTransport(srv.URL, "tkn", time.Second).BulkUpsert(context.Background(), "RENTVIX",
		[]Change{{CellKey: CellKey{ItemType: "feature", ItemID: "F1", PackageID: 999}, Enabled: true}})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "validation_failed", apiErr.Code)
	assert.JSONEq(t, `{"invalid_package_ids":[999]}`, string(apiErr.Details))
}

func TestHTTPTransportNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	}))
	defer srv.Close()

	_, err := NewHTTPTransport(srv.URL, "", time.Second).Aggregate(context.Background(), "RENTVIX")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}
