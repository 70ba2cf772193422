package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdamPallus/candy-solitaire/internal/auth"
	"github.com/AdamPallus/candy-solitaire/internal/config"
	"github.com/AdamPallus/candy-solitaire/internal/game"
)

// Tests run without Postgres or Redis attached, which doubles as coverage for
// the degraded single-binary mode.

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Config{
		Addr:         ":0",
		JWTSecret:    "test-secret",
		TokenTTL:     time.Hour,
		DailySalt:    "test-salt",
		ClientOrigin: "http://localhost:5173",
		SessionTTL:   30 * time.Minute,
		PruneEvery:   time.Minute,
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(cfg, game.NewManager(cfg.SessionTTL), log)
}

func doReq(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeRes(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), into), "body: %s", rec.Body.String())
}

func guestToken(t *testing.T, s *Server) string {
	t.Helper()
	rec := doReq(t, s, http.MethodPost, "/v1/auth/guest", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res authRes
	decodeRes(t, rec, &res)
	require.NotEmpty(t, res.Token)
	return res.Token
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doReq(t, s, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestNotFoundIsJSON(t *testing.T) {
	s := newTestServer(t)
	rec := doReq(t, s, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"not_found"`)
}

func TestGuestAuth(t *testing.T) {
	s := newTestServer(t)
	rec := doReq(t, s, http.MethodPost, "/v1/auth/guest", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res authRes
	decodeRes(t, rec, &res)
	assert.NotEmpty(t, res.Token)
	assert.True(t, res.User.Guest)
	assert.True(t, strings.HasPrefix(res.User.Username, "guest-"))

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "auth cookie should be set")
	assert.Equal(t, res.Token, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestRegisterLoginUnavailableWithoutDatabase(t *testing.T) {
	s := newTestServer(t)
	body := credentialsReq{Username: "player", Password: "supersecret"}

	rec := doReq(t, s, http.MethodPost, "/v1/auth/register", "", body)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doReq(t, s, http.MethodPost, "/v1/auth/login", "", body)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	s := newTestServer(t)
	rec := doReq(t, s, http.MethodPost, "/v1/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestMeRequiresAuth(t *testing.T) {
	s := newTestServer(t)

	rec := doReq(t, s, http.MethodGet, "/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doReq(t, s, http.MethodGet, "/v1/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeReturnsIdentity(t *testing.T) {
	s := newTestServer(t)
	token := guestToken(t, s)

	rec := doReq(t, s, http.MethodGet, "/v1/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var me struct {
		Username string `json:"username"`
		Guest    bool   `json:"guest"`
	}
	decodeRes(t, rec, &me)
	assert.True(t, me.Guest)
	assert.True(t, strings.HasPrefix(me.Username, "guest-"))
}

func TestMeAcceptsCookieAuth(t *testing.T) {
	s := newTestServer(t)
	token := guestToken(t, s)

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDailySeedStableAcrossRequests(t *testing.T) {
	s := newTestServer(t)

	var first, second struct{ Date, Seed string }
	rec := doReq(t, s, http.MethodGet, "/v1/daily", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeRes(t, rec, &first)

	rec = doReq(t, s, http.MethodGet, "/v1/daily", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeRes(t, rec, &second)

	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first.Seed, "daily-"+first.Date+"-"))
}

func TestDailyLeaderboardUnavailableWithoutDatabase(t *testing.T) {
	s := newTestServer(t)
	rec := doReq(t, s, http.MethodGet, "/v1/daily/leaderboard", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreateGameRequiresAuth(t *testing.T) {
	s := newTestServer(t)
	rec := doReq(t, s, http.MethodPost, "/v1/games", "", createGameReq{Seed: "alpha"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndFetchGame(t *testing.T) {
	s := newTestServer(t)
	token := guestToken(t, s)

	rec := doReq(t, s, http.MethodPost, "/v1/games", token, createGameReq{Seed: "alpha"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created gameRes
	decodeRes(t, rec, &created)
	assert.NotEmpty(t, created.GameID)
	assert.Equal(t, "alpha", created.State.Seed)
	assert.Len(t, created.State.Tableau, 28)
	assert.Equal(t, 23, created.State.StockCount)
	assert.Equal(t, 1, created.State.WasteCount)
	assert.Equal(t, "playing", created.State.Status)

	rec = doReq(t, s, http.MethodGet, "/v1/games/"+created.GameID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched gameRes
	decodeRes(t, rec, &fetched)
	assert.Equal(t, created.GameID, fetched.GameID)
	assert.Equal(t, "alpha", fetched.State.Seed)
}

func TestCreateGameEmptyBody(t *testing.T) {
	s := newTestServer(t)
	token := guestToken(t, s)

	rec := doReq(t, s, http.MethodPost, "/v1/games", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created gameRes
	decodeRes(t, rec, &created)
	assert.NotEmpty(t, created.State.Seed)
}

func TestCreateDailyGame(t *testing.T) {
	s := newTestServer(t)
	token := guestToken(t, s)

	var today struct{ Date, Seed string }
	rec := doReq(t, s, http.MethodGet, "/v1/daily", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeRes(t, rec, &today)

	rec = doReq(t, s, http.MethodPost, "/v1/games", token, createGameReq{Daily: true})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created gameRes
	decodeRes(t, rec, &created)
	assert.Equal(t, today.Seed, created.State.Seed)
	assert.Equal(t, today.Date, created.State.DailyDate)
}

func TestGameActionRoundTrip(t *testing.T) {
	s := newTestServer(t)
	token := guestToken(t, s)

	rec := doReq(t, s, http.MethodPost, "/v1/games", token, createGameReq{Seed: "alpha"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created gameRes
	decodeRes(t, rec, &created)

	rec = doReq(t, s, http.MethodPost, "/v1/games/"+created.GameID+"/actions", token,
		map[string]any{"type": "draw"})
	require.Equal(t, http.StatusOK, rec.Code)

	var res game.Result
	decodeRes(t, rec, &res)
	assert.True(t, res.Applied)
	assert.Equal(t, 22, res.State.StockCount)
	assert.Equal(t, 2, res.State.WasteCount)
	assert.Equal(t, 1, res.State.Moves)
}

func TestGameActionRejectedMove(t *testing.T) {
	s := newTestServer(t)
	token := guestToken(t, s)

	rec := doReq(t, s, http.MethodPost, "/v1/games", token, createGameReq{Seed: "alpha"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created gameRes
	decodeRes(t, rec, &created)

	// Slot 0 is a peak and covered on a fresh deal.
	rec = doReq(t, s, http.MethodPost, "/v1/games/"+created.GameID+"/actions", token,
		map[string]any{"type": "play", "target": 0})
	require.Equal(t, http.StatusOK, rec.Code)

	var res game.Result
	decodeRes(t, rec, &res)
	assert.False(t, res.Applied)
	assert.Equal(t, "illegal-target", res.Rejection)
	assert.Equal(t, 0, res.State.Moves)
}

func TestGameActionMalformed(t *testing.T) {
	s := newTestServer(t)
	token := guestToken(t, s)

	rec := doReq(t, s, http.MethodPost, "/v1/games", token, createGameReq{Seed: "alpha"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created gameRes
	decodeRes(t, rec, &created)
	path := "/v1/games/" + created.GameID + "/actions"

	// Every refusal body must itself parse as JSON, whatever the input.
	badBody := func(rec *httptest.ResponseRecorder) string {
		t.Helper()
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var e map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e), "body: %s", rec.Body.String())
		require.NotEmpty(t, e["error"])
		return e["error"]
	}

	badBody(doReq(t, s, http.MethodPost, path, token, map[string]any{"type": "play"}))
	badBody(doReq(t, s, http.MethodPost, path, token, map[string]any{"type": "dance"}))

	// A quote in client input must come back escaped, not break the body.
	msg := badBody(doReq(t, s, http.MethodPost, path, token, map[string]any{"type": "powerup", "kind": `la"ser`}))
	assert.Contains(t, msg, `la"ser`)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("{nope"))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	badBody(w)
}

func TestGameOwnership(t *testing.T) {
	s := newTestServer(t)
	owner := guestToken(t, s)
	stranger := guestToken(t, s)

	rec := doReq(t, s, http.MethodPost, "/v1/games", owner, createGameReq{Seed: "alpha"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created gameRes
	decodeRes(t, rec, &created)

	rec = doReq(t, s, http.MethodGet, "/v1/games/"+created.GameID, stranger, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doReq(t, s, http.MethodGet, "/v1/games/00000000-0000-0000-0000-000000000000", owner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doReq(t, s, http.MethodGet, "/v1/games/not-a-uuid", owner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJournalUnavailableWithoutRedis(t *testing.T) {
	s := newTestServer(t)
	token := guestToken(t, s)

	rec := doReq(t, s, http.MethodPost, "/v1/games", token, createGameReq{Seed: "alpha"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created gameRes
	decodeRes(t, rec, &created)

	rec = doReq(t, s, http.MethodGet, "/v1/games/"+created.GameID+"/journal", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDeleteGame(t *testing.T) {
	s := newTestServer(t)
	token := guestToken(t, s)

	rec := doReq(t, s, http.MethodPost, "/v1/games", token, createGameReq{Seed: "alpha"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created gameRes
	decodeRes(t, rec, &created)

	rec = doReq(t, s, http.MethodDelete, "/v1/games/"+created.GameID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = doReq(t, s, http.MethodGet, "/v1/games/"+created.GameID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/daily", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestHubFanout(t *testing.T) {
	s := newTestServer(t)
	token := guestToken(t, s)

	rec := doReq(t, s, http.MethodPost, "/v1/games", token, createGameReq{Seed: "alpha"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created gameRes
	decodeRes(t, rec, &created)

	hub := s.hubs.hubs[uuid.MustParse(created.GameID)]
	require.NotNil(t, hub, "creating a game should register its hub")

	a := &wsClient{send: make(chan []byte, 4)}
	b := &wsClient{send: make(chan []byte, 4)}
	hub.add(a)
	hub.add(b)

	rec = doReq(t, s, http.MethodPost, "/v1/games/"+created.GameID+"/actions", token,
		map[string]any{"type": "draw"})
	require.Equal(t, http.StatusOK, rec.Code)

	for _, c := range []*wsClient{a, b} {
		select {
		case msg := <-c.send:
			var ev game.GameEvent
			require.NoError(t, json.Unmarshal(msg, &ev))
			assert.Equal(t, game.EventActionApplied, ev.Type)
			assert.Equal(t, "draw", ev.Action)
		default:
			t.Fatal("expected a broadcast event on every subscriber")
		}
	}
}

func TestHubDropsSlowConsumer(t *testing.T) {
	hub := &sessionHub{clients: map[*wsClient]struct{}{}}
	c := &wsClient{send: make(chan []byte, 1)}
	hub.add(c)

	hub.broadcast(game.GameEvent{Type: game.EventSyncState})
	hub.broadcast(game.GameEvent{Type: game.EventSyncState})

	assert.Len(t, c.send, 1, "second event should be dropped, not block")
}
