package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tripweaver/auth"
	"tripweaver/autosave"
	"tripweaver/comments"
	"tripweaver/export"
	"tripweaver/generator"
	"tripweaver/itinerary"
	"tripweaver/live"
	"tripweaver/maps"
	"tripweaver/models"
	"tripweaver/ratelim"
	"tripweaver/share"
)

func newTestRouter(t *testing.T) *httprouter.Router {
	t.Helper()
	logger := zap.NewNop()

	store := itinerary.NewMemoryStore()
	shares := share.NewMemoryStore()
	views := share.NewMemoryViewCounter()
	svc := itinerary.NewService(store, shares, logger, autosave.WithDelay(time.Hour))
	t.Cleanup(svc.Shutdown)

	hub := live.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	svc.SetNotifier(live.NewFanout(hub, nil, logger))

	rl := ratelim.NewRateLimiter(ratelim.PerMinute(1000), 100)
	t.Cleanup(rl.Stop)

	authSvc := auth.NewService(auth.NewMemoryUserStore(), auth.NewMemorySessionStore(), []byte("routes-secret"), time.Hour, logger)

	router := httprouter.New()
	RoutesWrapper(router, Deps{
		Authenticator: authSvc.Authenticator(),
		RateLimiter:   rl,
		Auth:          auth.NewHandlers(authSvc, logger),
		Generator:     generator.NewHandlers(generator.New(nil, logger), store, logger),
		Itineraries:   itinerary.NewHandlers(svc, logger),
		Export:        export.NewHandlers(svc, nil, "https://trips.example.com", logger),
		Shares:        share.NewHandlers(shares, views, svc, logger),
		Comments:      comments.NewHandlers(comments.NewMemoryStore(), svc, logger),
		Live:          live.Handler(svc, hub, logger),
		MapConfig:     maps.GetMapConfig(maps.NewLoader(maps.Static("https://maps.example.com/js", "")), logger),
	})
	return router
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestEndToEnd(t *testing.T) {
	router := newTestRouter(t)

	rec := call(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "amelie", "email": "amelie@example.com", "password": "bonjour123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "amelie", "password": "bonjour123"})
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	prefs := models.TripPreferences{
		Destination: "Kyoto", StartDate: "2025-04-01", EndDate: "2025-04-04",
		Travelers: 2, Budget: models.BudgetModerate, Pace: models.PaceRelaxed,
	}
	rec = call(t, router, http.MethodPost, "/api/itineraries/generate?save=true", login.Token, prefs)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var generated struct {
		Itinerary models.Itinerary `json:"itinerary"`
		IsDemo    bool             `json:"isDemo"`
		ID        string           `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &generated))
	assert.True(t, generated.IsDemo)
	require.NotEmpty(t, generated.ID)

	rec = call(t, router, http.MethodGet, "/api/itineraries", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), generated.ID)

	rec = call(t, router, http.MethodGet, "/api/itineraries", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, router, http.MethodPost, "/api/shares", login.Token, map[string]any{
		"itineraryId": generated.ID, "shareMode": "view", "isPublic": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sh models.Share
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sh))

	rec = call(t, router, http.MethodPost, "/api/shares/"+sh.ShareID+"/view", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, router, http.MethodGet, "/api/itineraries/"+generated.ID+"/pdf", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = call(t, router, http.MethodPost, "/api/auth/logout", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = call(t, router, http.MethodGet, "/api/itineraries", login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGenerateSharesWildcard(t *testing.T) {
	router := newTestRouter(t)

	rec := call(t, router, http.MethodPost, "/api/itineraries/something-else", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, router, http.MethodPost, "/api/itineraries/generate", "", models.TripPreferences{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMapsUnconfigured(t *testing.T) {
	router := newTestRouter(t)
	rec := call(t, router, http.MethodGet, "/api/maps/config", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
