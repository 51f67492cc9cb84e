package gateapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-ledger/internal/ledger"
	"ticket-ledger/internal/treasury"
)

func newTestServer(t *testing.T) (*Server, *ledger.Ledger) {
	t.Helper()

	led := ledger.New(treasury.NewMemory(), ledger.Options{})
	return New(led, nil, nil, ":0", false), led
}

func gateQuery(t *testing.T, srv *Server, path string) map[string]any {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthorize_Granted(t *testing.T) {
	srv, led := newTestServer(t)

	_, err := led.CreatePolicy("evt-1", true, false, 0, "org")
	require.NoError(t, err)
	require.NoError(t, led.Join("evt-1", "alice"))

	body := gateQuery(t, srv, "/api/v1/authorize?policy=evt-1&event_id=evt-1&principal=alice")
	assert.Equal(t, true, body["authorized"])
}

func TestAuthorize_DeniedIsStillOK(t *testing.T) {
	srv, led := newTestServer(t)

	_, err := led.CreatePolicy("evt-1", true, false, 0, "org")
	require.NoError(t, err)

	// Not enrolled
	body := gateQuery(t, srv, "/api/v1/authorize?policy=evt-1&event_id=evt-1&principal=mallory")
	assert.Equal(t, false, body["authorized"])

	// Unknown policy
	body = gateQuery(t, srv, "/api/v1/authorize?policy=ghost&event_id=ghost&principal=alice")
	assert.Equal(t, false, body["authorized"])

	// Cross-event replay
	body = gateQuery(t, srv, "/api/v1/authorize?policy=evt-1&event_id=evt-2&principal=org")
	assert.Equal(t, false, body["authorized"])
}

func TestAuthorize_KillSwitch(t *testing.T) {
	srv, led := newTestServer(t)

	_, err := led.CreatePolicy("evt-1", true, false, 0, "org")
	require.NoError(t, err)
	require.NoError(t, led.Join("evt-1", "alice"))
	require.NoError(t, led.Deactivate("evt-1", "org"))

	body := gateQuery(t, srv, "/api/v1/authorize?policy=evt-1&event_id=evt-1&principal=alice")
	assert.Equal(t, false, body["authorized"])

	require.NoError(t, led.Reactivate("evt-1", "org"))

	body = gateQuery(t, srv, "/api/v1/authorize?policy=evt-1&event_id=evt-1&principal=alice")
	assert.Equal(t, true, body["authorized"])
}

func TestMembership_IgnoresKillSwitch(t *testing.T) {
	srv, led := newTestServer(t)

	_, err := led.CreatePolicy("evt-1", true, false, 0, "org")
	require.NoError(t, err)
	require.NoError(t, led.Join("evt-1", "alice"))
	require.NoError(t, led.Deactivate("evt-1", "org"))

	body := gateQuery(t, srv, "/api/v1/authorize/membership?policy=evt-1&principal=alice")
	assert.Equal(t, true, body["member"])
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	body := gateQuery(t, srv, "/health")
	assert.Equal(t, "healthy", body["status"])
}
