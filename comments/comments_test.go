package comments

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tripweaver/itinerary"
	"tripweaver/middleware"
	"tripweaver/models"
	"tripweaver/share"
)

type fixture struct {
	store  *MemoryStore
	router *httprouter.Router
	viewID string
	collab string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	docs := itinerary.NewMemoryStore()
	shares := share.NewMemoryStore()
	svc := itinerary.NewService(docs, shares, zap.NewNop())
	t.Cleanup(svc.Shutdown)

	doc, err := docs.Create(ctx, "alice", itinerary.Draft{Itinerary: models.Itinerary{
		Title: "Rome",
		Days:  []models.Day{{}, {}, {}},
	}})
	require.NoError(t, err)

	view, err := shares.Create(ctx, models.Share{ItineraryID: doc.ID, OwnerID: "alice", ShareMode: models.ShareModeView, IsPublic: true})
	require.NoError(t, err)
	collab, err := shares.Create(ctx, models.Share{ItineraryID: doc.ID, OwnerID: "alice", ShareMode: models.ShareModeCollaborate})
	require.NoError(t, err)

	store := NewMemoryStore()
	h := NewHandlers(store, svc, zap.NewNop())
	r := httprouter.New()
	r.POST("/api/shares/:shareid/comments", asUser(h.CreateComment))
	r.GET("/api/shares/:shareid/comments", asUser(h.GetComments))
	r.DELETE("/api/shares/:shareid/comments/:commentid", asUser(h.DeleteComment))
	r.POST("/api/shares/:shareid/comments/:commentid/resolve", asUser(h.ResolveComment))

	return &fixture{store: store, router: r, viewID: view.ShareID, collab: collab.ShareID}
}

func asUser(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if u := r.Header.Get("X-User"); u != "" {
			r = r.WithContext(middleware.WithSession(r.Context(), &models.Session{UserID: u, Username: u + "-name"}))
		}
		next(w, r, ps)
	}
}

func (f *fixture) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set("X-User", user)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) comment(t *testing.T, shareID, user, content string, day *int) models.Comment {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/shares/"+shareID+"/comments", user, map[string]any{"content": content, "dayIndex": day})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c models.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	return c
}

func (f *fixture) list(t *testing.T, shareID, query, user string) []models.Comment {
	t.Helper()
	rec := f.do(t, http.MethodGet, "/api/shares/"+shareID+"/comments"+query, user, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out []models.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func intPtr(i int) *int { return &i }

func TestCreateAndListComments(t *testing.T) {
	f := newFixture(t)

	first := f.comment(t, f.viewID, "bob", "  Love day two  ", intPtr(1))
	assert.Equal(t, "Love day two", first.Content)
	assert.Equal(t, "bob-name", first.UserName)
	f.comment(t, f.viewID, "carol", "General thoughts", nil)
	f.comment(t, f.viewID, "bob", "Day three?", intPtr(2))

	all := f.list(t, f.viewID, "", "")
	require.Len(t, all, 3)
	assert.Equal(t, "Love day two", all[0].Content)
	assert.Equal(t, "Day three?", all[2].Content)

	day1 := f.list(t, f.viewID, "?day=1", "bob")
	require.Len(t, day1, 1)
	assert.Equal(t, first.ID, day1[0].ID)

	general := f.list(t, f.viewID, "?day=general", "bob")
	require.Len(t, general, 1)
	assert.Nil(t, general[0].DayIndex)

	assert.Empty(t, f.list(t, f.collab, "", "alice"))
}

func TestCreateCommentRejections(t *testing.T) {
	f := newFixture(t)
	path := "/api/shares/" + f.viewID + "/comments"

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, path, "bob", map[string]any{"content": "   "}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, path, "bob", map[string]any{"content": "hi", "dayIndex": 3}).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPost, path, "", map[string]any{"content": "hi"}).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/shares/missing/comments", "bob", map[string]any{"content": "hi"}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, path+"?day=first", "bob", nil).Code)
}

func TestPrivateShareNeedsSignIn(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/shares/"+f.collab+"/comments", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteByAuthorOrOwner(t *testing.T) {
	f := newFixture(t)
	byBob := f.comment(t, f.viewID, "bob", "mine", nil)
	byCarol := f.comment(t, f.viewID, "carol", "hers", nil)
	base := "/api/shares/" + f.viewID + "/comments/"

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodDelete, base+byCarol.ID, "bob", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, base+byBob.ID, "bob", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, base+byCarol.ID, "alice", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, base+byCarol.ID, "alice", nil).Code)
	assert.Empty(t, f.list(t, f.viewID, "", "alice"))
}

func TestResolveIsOwnerOnly(t *testing.T) {
	f := newFixture(t)
	c := f.comment(t, f.collab, "bob", "swap days?", intPtr(0))
	path := "/api/shares/" + f.collab + "/comments/" + c.ID + "/resolve"

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPost, path, "bob", nil).Code)

	rec := f.do(t, http.MethodPost, path, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got models.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Resolved)

	rec = f.do(t, http.MethodPost, path, "alice", map[string]bool{"resolved": false})
	require.Equal(t, http.StatusOK, rec.Code)
	got = models.Comment{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Resolved)
}
