package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalog/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "key-123", 2*time.Second, zap.NewNop())
}

func TestFetchNodesWrappedPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/menus", r.URL.Path)
		assert.Equal(t, "RENTVIX", r.URL.Query().Get("product_code"))
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"id":1,"parent_id":null,"type":"group","title":"Main","order_number":2},
			{"id":"2","parent_id":1,"name":"Orders","order":0,"is_active":false,"product_code":"RENTVIX"}
		]}`))
	})

	nodes, err := client.FetchNodes(context.Background(), model.KindMenu, "RENTVIX")
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	assert.Equal(t, model.NodeID("1"), nodes[0].ID)
	assert.Nil(t, nodes[0].ParentID)
	assert.Equal(t, "Main", nodes[0].DisplayTitle())
	assert.Equal(t, 2, nodes[0].SuppliedOrder())
	assert.True(t, nodes[0].Active())

	require.NotNil(t, nodes[1].ParentID)
	assert.Equal(t, model.NodeID("1"), *nodes[1].ParentID)
	assert.Equal(t, "Orders", nodes[1].DisplayTitle())
	assert.Equal(t, 0, nodes[1].SuppliedOrder())
	assert.False(t, nodes[1].Active())
}

func TestFetchNodesBareArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/features", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":"f1","type":"feature","title":"Export"}]`))
	})

	nodes, err := client.FetchNodes(context.Background(), model.KindFeature, "RENTVIX")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, model.NodeID("f1"), nodes[0].ID)
}

func TestFetchNodesFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{name: "server error", handler: func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}},
		{name: "malformed json", handler: func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"data":[{"id":`))
		}},
		{name: "missing data", handler: func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"items":[]}`))
		}},
		{name: "empty body", handler: func(w http.ResponseWriter, _ *http.Request) {}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, tc.handler)
			_, err := client.FetchNodes(context.Background(), model.KindMenu, "RENTVIX")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnavailable))
		})
	}
}

func TestFetchNodesWithoutBaseURL(t *testing.T) {
	client := NewClient("", "", 0, zap.NewNop())
	_, err := client.FetchNodes(context.Background(), model.KindMenu, "RENTVIX")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchNodesEmptySnapshot(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	nodes, err := client.FetchNodes(context.Background(), model.KindMenu, "RENTVIX")
	require.NoError(t, err)
	assert.Empty(t, nodes)
}
