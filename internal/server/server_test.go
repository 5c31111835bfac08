package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/carbontally/internal/interpret"
	"github.com/ppiankov/carbontally/internal/ledger"
	"github.com/ppiankov/carbontally/internal/model"
	"github.com/ppiankov/carbontally/internal/pipeline"
	"github.com/ppiankov/carbontally/internal/worker"
)

func newTestServer(t *testing.T, limiter *worker.Limiter) *Server {
	t.Helper()
	store, err := ledger.Open(context.Background(), filepath.Join(t.TempDir(), "carbon.db"))
	require.NoError(t, err)

	p := pipeline.New(interpret.NewDefault(), store, nil)
	t.Cleanup(func() { _ = p.Close() })

	return New(p, limiter, model.LedgerConfig{HistoryLimit: 50, LeaderboardSz: 20})
}

func do(t *testing.T, s *Server, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func userCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatalf("response did not set %s", CookieName)
	return nil
}

func TestIndex_IssuesCookie(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "carbontally")

	c := userCookie(t, rec)
	_, err := uuid.Parse(c.Value)
	assert.NoError(t, err)
	assert.True(t, c.HttpOnly)
}

func TestChat_RecordsActivities(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/chat", `{"prompt":"drove 5 km and cycled 3 km"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := userCookie(t, rec)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.InDelta(t, -0.4, resp.CO2, 1e-9)
	assert.InDelta(t, -0.4, resp.TotalCO2, 1e-9)
	require.Len(t, resp.Activities, 2)
	assert.Equal(t, "car", resp.Activities[0].Activity)
	assert.Equal(t, "cycle", resp.Activities[1].Activity)
	assert.Equal(t, resp.Message, resp.Reply)

	rec = do(t, s, http.MethodPost, "/chat", `{"prompt":"walked 2 km"}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 0.4, resp.CO2, 1e-9)
	assert.InDelta(t, 0.0, resp.TotalCO2, 1e-9)
}

func TestChat_BadRequests(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty prompt", `{"prompt":"   "}`, "Empty prompt"},
		{"missing prompt", `{}`, "Empty prompt"},
		{"empty body", ``, "Empty prompt"},
		{"malformed json", `{"prompt":`, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/chat", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.OK)
			assert.Equal(t, tt.want, resp.Error)
		})
	}
}

func TestChat_RateLimited(t *testing.T) {
	s := newTestServer(t, worker.NewLimiter(1, 1))

	cookie := userCookie(t, do(t, s, http.MethodGet, "/", "", nil))

	rec := do(t, s, http.MethodPost, "/chat", `{"prompt":"drove 5 km"}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/chat", `{"prompt":"drove 5 km"}`, cookie)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// The refused prompt was not recorded
	rec = do(t, s, http.MethodGet, "/stats", "", cookie)
	var st userView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 1, st.Entries)
	assert.InDelta(t, -1.0, st.TotalCO2, 1e-9)

	// Other users have their own bucket
	rec = do(t, s, http.MethodPost, "/chat", `{"prompt":"cycled 3 km"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChat_CookielessCallersShareAddressBucket(t *testing.T) {
	limiter := worker.NewLimiter(1, 1)
	s := newTestServer(t, limiter)

	accepted := 0
	for i := 0; i < 200; i++ {
		rec := do(t, s, http.MethodPost, "/chat", `{"prompt":"drove 1 km"}`, nil)
		if rec.Code == http.StatusOK {
			accepted++
		}
	}

	assert.LessOrEqual(t, accepted, 2)
	assert.Equal(t, 1, limiter.Len())

	// A caller behind another address is limited separately
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"prompt":"drove 1 km"}`))
	req.RemoteAddr = "198.51.100.7:4321"
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, limiter.Len())
}

func TestRemoteKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	assert.Equal(t, "addr:203.0.113.9", remoteKey(req))

	req.RemoteAddr = "unix"
	assert.Equal(t, "addr:unix", remoteKey(req))
}

func TestHistoryAndStats(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/history", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	cookie := userCookie(t, rec)

	do(t, s, http.MethodPost, "/chat", `{"prompt":"drove 10 km"}`, cookie)
	do(t, s, http.MethodPost, "/chat", `{"prompt":"cycled 3 km"}`, cookie)

	rec = do(t, s, http.MethodGet, "/history", "", cookie)
	var history []model.LogEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, "cycle", history[0].Activity, "newest first")
	assert.Equal(t, "car", history[1].Activity)

	rec = do(t, s, http.MethodGet, "/stats", "", cookie)
	var st userView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, cookie.Value, st.ID)
	assert.Equal(t, 2, st.Entries)
	assert.InDelta(t, -1.4, st.TotalCO2, 1e-9)
	assert.InDelta(t, -2.0, st.EmittedCO2, 1e-9)
	assert.InDelta(t, 0.6, st.SavedCO2, 1e-9)
	assert.True(t, strings.HasPrefix(st.Name, "User-"))
}

func TestNameAndLeaderboard(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/chat", `{"prompt":"cycled 5 km"}`, nil)
	green := userCookie(t, rec)
	rec = do(t, s, http.MethodPost, "/chat", `{"prompt":"drove 5 km"}`, nil)
	driver := userCookie(t, rec)

	rec = do(t, s, http.MethodPost, "/name", `{"name":"Greta"}`, green)
	require.Equal(t, http.StatusOK, rec.Code)
	var st userView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "Greta", st.Name)

	rec = do(t, s, http.MethodGet, "/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var board []model.LeaderboardRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	require.Len(t, board, 2)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, "Greta", board[0].Name)
	assert.InDelta(t, 1.0, board[0].TotalCO2, 1e-9)
	assert.Equal(t, driver.Value, board[1].UserID)
}

func TestMalformedCookieReplaced(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/stats", "", &http.Cookie{Name: CookieName, Value: "not-a-uuid"})
	require.Equal(t, http.StatusOK, rec.Code)
	c := userCookie(t, rec)
	assert.NotEqual(t, "not-a-uuid", c.Value)
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/chat", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	s := newTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, s.ListenAndServe(ctx, "127.0.0.1:0"))
}
