package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testSecret = []byte("ws-test-secret")

func signToken(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "user-1",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func newHubServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(zap.NewNop())
	go hub.Run()
	t.Cleanup(hub.Stop)

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		ServeWs(hub, c, testSecret, []string{"admin"})
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return hub, srv
}

func wsURL(srv *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
}

func TestPublishReachesConnectedClient(t *testing.T) {
	hub, srv := newHubServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, signToken(t, "admin")), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish("matrix.updated", map[string]interface{}{"product_code": "RENTVIX", "count": 3})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev struct {
		Event string                 `json:"event"`
		Data  map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &ev))
	assert.Equal(t, "matrix.updated", ev.Event)
	assert.Equal(t, "RENTVIX", ev.Data["product_code"])
}

func TestServeWsRejectsBadTokens(t *testing.T) {
	_, srv := newHubServer(t)

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{name: "missing", token: "", status: 401},
		{name: "garbage", token: "abc.def.ghi", status: 401},
		{name: "wrong role", token: signToken(t, "viewer"), status: 403},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, tc.token), nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestPublishWithoutRunnerDoesNotBlock(t *testing.T) {
	hub := NewHub(zap.NewNop())
	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastQueue*2; i++ {
			hub.Publish("hierarchy.synced", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked with no running hub")
	}
}
