package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gamepoints/internal/api"
	"github.com/mcoot/gamepoints/internal/api/apierr"
	"github.com/mcoot/gamepoints/internal/api/response"
	"github.com/mcoot/gamepoints/internal/factory"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// API tests are integration tests - use production factory with real random/clock
	app, err := factory.New(t.Context(), factory.Config{
		Logger: logger,
		Owner:  factory.TestOwner,
		Credentials: []string{
			string(factory.TestOwner) + "=" + factory.TestOwnerSecret,
			string(factory.TestScorer) + "=" + factory.TestScorerSecret,
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		AuthService: app.AuthService,
		Ledger:      app.Ledger,
		Hub:         app.Hub,
		Metrics:     app.Metrics,
	})

	return &testServer{
		handler: router,
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	switch b := body.(type) {
	case nil:
		reqBody = bytes.NewBuffer(nil)
	case string:
		reqBody = bytes.NewBufferString(b)
	default:
		encoded, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(encoded)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func login(t *testing.T, ts *testServer, identity, secret string) string {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/sessions", map[string]string{"identity": identity, "secret": secret}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp response.Session
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionToken)
	return resp.SessionToken
}

func ownerToken(t *testing.T, ts *testServer) string {
	return login(t, ts, string(factory.TestOwner), factory.TestOwnerSecret)
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apierr.APIError {
	t.Helper()
	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/sessions", map[string]string{"identity": "owner", "secret": "owner-secret"}, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.Session
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "owner", resp.Identity)
	assert.True(t, strings.HasPrefix(resp.SessionToken, "sess_"))
	assert.True(t, resp.ExpiresAt.After(time.Now()))
}

func TestLoginRejected(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/sessions", map[string]string{"identity": "owner", "secret": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeInvalidCredentials, decodeError(t, rr).Code)

	rr = ts.request(http.MethodPost, "/api/v1/sessions", map[string]string{"identity": "owner"}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/sessions", "not json", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	token := ownerToken(t, ts)

	rr := ts.request(http.MethodDelete, "/api/v1/sessions/current", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/players/alice/awards", map[string]any{"points": 1}, token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetLedger(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/ledger", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.Ledger
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "owner", resp.Owner)
	assert.Equal(t, uint64(0), resp.PlayerCount)
}

func TestUnknownPlayerReadsZero(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/players/nobody/balance", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var balance response.Balance
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &balance))
	assert.Equal(t, "nobody", balance.Player)
	assert.Equal(t, uint64(0), balance.Balance)

	rr = ts.request(http.MethodGet, "/api/v1/players/nobody", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var info response.PlayerScore
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, uint64(0), info.Points)
	assert.Equal(t, uint32(0), info.GameID)
	assert.NotZero(t, info.Timestamp)
}

func TestAwardAndReset(t *testing.T) {
	ts := newTestServer(t)
	token := ownerToken(t, ts)

	rr := ts.request(http.MethodPost, "/api/v1/players/alice/awards", map[string]any{"points": 50, "game_id": 1}, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var award response.Award
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &award))
	assert.Equal(t, uint64(50), award.Balance)

	rr = ts.request(http.MethodPost, "/api/v1/players/alice/awards", map[string]any{"points": 25, "game_id": 1}, token)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &award))
	assert.Equal(t, uint64(75), award.Balance)

	rr = ts.request(http.MethodGet, "/api/v1/ledger", nil, "")
	var ledger response.Ledger
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ledger))
	assert.Equal(t, uint64(1), ledger.PlayerCount)

	rr = ts.request(http.MethodPost, "/api/v1/players/alice/reset", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var reset response.Reset
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reset))
	assert.Equal(t, uint64(75), reset.PreviousBalance)

	rr = ts.request(http.MethodGet, "/api/v1/players/alice/balance", nil, "")
	var balance response.Balance
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &balance))
	assert.Equal(t, uint64(0), balance.Balance)

	rr = ts.request(http.MethodGet, "/api/v1/ledger", nil, "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ledger))
	assert.Equal(t, uint64(0), ledger.PlayerCount)
}

func TestAwardValidation(t *testing.T) {
	ts := newTestServer(t)
	token := ownerToken(t, ts)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"zero points", `{"points": 0}`, http.StatusBadRequest, apierr.CodeInvalidAmount},
		{"negative points", `{"points": -5}`, http.StatusBadRequest, apierr.CodeInvalidAmount},
		{"missing points", `{"game_id": 3}`, http.StatusBadRequest, apierr.CodeInvalidRequest},
		{"fractional points", `{"points": 1.5}`, http.StatusBadRequest, apierr.CodeInvalidRequest},
		{"points beyond 64 bits", `{"points": 18446744073709551616}`, http.StatusBadRequest, apierr.CodeInvalidRequest},
		{"malformed body", `{"points":`, http.StatusBadRequest, apierr.CodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/v1/players/alice/awards", tt.body, token)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.code, decodeError(t, rr).Code)
		})
	}
}

func TestAwardOverflow(t *testing.T) {
	ts := newTestServer(t)
	token := ownerToken(t, ts)

	rr := ts.request(http.MethodPost, "/api/v1/players/alice/awards", `{"points": 18446744073709551615}`, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.request(http.MethodPost, "/api/v1/players/alice/awards", `{"points": 1}`, token)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeOverflow, decodeError(t, rr).Code)

	rr = ts.request(http.MethodGet, "/api/v1/players/alice/balance", nil, "")
	assert.Contains(t, rr.Body.String(), "18446744073709551615")
}

func TestMutationsRequireOwner(t *testing.T) {
	ts := newTestServer(t)

	// No session at all
	rr := ts.request(http.MethodPost, "/api/v1/players/alice/awards", map[string]any{"points": 10}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/players/alice/reset", nil, "bogus-token")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Authenticated but not the owner
	scorer := login(t, ts, string(factory.TestScorer), factory.TestScorerSecret)

	rr = ts.request(http.MethodPost, "/api/v1/players/alice/awards", map[string]any{"points": 10}, scorer)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeNotOwner, decodeError(t, rr).Code)

	rr = ts.request(http.MethodPost, "/api/v1/players/alice/reset", nil, scorer)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/players/alice/balance", nil, "")
	assert.Contains(t, rr.Body.String(), `"balance":0`)
}

func TestInvalidAwardByNonOwnerIsForbidden(t *testing.T) {
	ts := newTestServer(t)
	scorer := login(t, ts, string(factory.TestScorer), factory.TestScorerSecret)

	bodies := map[string]string{
		"negative points":   `{"points": -5, "game_id": 1}`,
		"zero points":       `{"points": 0}`,
		"fractional points": `{"points": 1.5}`,
		"missing points":    `{"game_id": 3}`,
		"malformed body":    `{"points":`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/v1/players/p1/awards", body, scorer)
			assert.Equal(t, http.StatusForbidden, rr.Code)
			assert.Equal(t, apierr.CodeNotOwner, decodeError(t, rr).Code)
		})
	}
}

func TestHistoryLookup(t *testing.T) {
	ts := newTestServer(t)
	token := ownerToken(t, ts)

	rr := ts.request(http.MethodPost, "/api/v1/players/alice/awards", map[string]any{"points": 40, "game_id": 7}, token)
	require.Equal(t, http.StatusOK, rr.Code)

	// Find the record's timestamp through the stored history
	var found *response.HistoryRecord
	now := uint64(time.Now().Unix())
	for ts2 := now - 5; ts2 <= now+1; ts2++ {
		rr = ts.request(http.MethodGet, "/api/v1/players/alice/history/"+strconv.FormatUint(ts2, 10)+"/7", nil, "")
		if rr.Code == http.StatusOK {
			var record response.HistoryRecord
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &record))
			found = &record
			break
		}
		assert.Equal(t, http.StatusNotFound, rr.Code)
	}
	require.NotNil(t, found, "history record not found")
	assert.Equal(t, uint64(40), found.PointsAwarded)
	assert.Equal(t, uint32(7), found.GameID)

	rr = ts.request(http.MethodGet, "/api/v1/players/alice/history/abc/7", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/players/alice/history/1/4294967296", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLeaderboardIsEmpty(t *testing.T) {
	ts := newTestServer(t)
	token := ownerToken(t, ts)

	rr := ts.request(http.MethodPost, "/api/v1/players/alice/awards", map[string]any{"points": 40}, token)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/leaderboard?limit=5", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"limit":5,"entries":[]}`, rr.Body.String())

	rr = ts.request(http.MethodGet, "/api/v1/leaderboard?limit=-1", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEventStream(t *testing.T) {
	ts := newTestServer(t)
	token := ownerToken(t, ts)

	server := httptest.NewServer(ts.handler)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/events?player=alice", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	require.Eventually(t, func() bool { return ts.app.Hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	rr := ts.request(http.MethodPost, "/api/v1/players/bob/awards", map[string]any{"points": 1}, token)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = ts.request(http.MethodPost, "/api/v1/players/alice/awards", map[string]any{"points": 9}, token)
	require.Equal(t, http.StatusOK, rr.Code)

	// The filtered stream skips bob's award
	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: points.") {
			break
		}
	}
	assert.Equal(t, "event: points.awarded\n", line)

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"player":"alice"`)
	assert.Contains(t, line, `"points":9`)
}

func TestMetricsCountRequests(t *testing.T) {
	ts := newTestServer(t)

	ts.request(http.MethodGet, "/api/v1/players/alice/balance", nil, "")
	ts.request(http.MethodGet, "/api/v1/players/bob/balance", nil, "")

	rec := httptest.NewRecorder()
	ts.app.Metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(),
		`gamepoints_http_requests_total{method="GET",route="/api/v1/players/{player}/balance",status="200"} 2`)
}
