package itinerary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tripweaver/access"
	"tripweaver/autosave"
	"tripweaver/middleware"
	"tripweaver/models"
)

type shareTable map[string]*models.Share

func (s shareTable) GetShare(_ context.Context, id string) (*models.Share, error) {
	if sh, ok := s[id]; ok {
		return sh, nil
	}
	return nil, errors.New("share not found")
}

type changeLog struct {
	mu      sync.Mutex
	changes []Change
}

func (c *changeLog) ItineraryChanged(_ context.Context, ch Change) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes = append(c.changes, ch)
}

func (c *changeLog) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.changes)
}

type countingStore struct {
	*MemoryStore
	mu      sync.Mutex
	updates int
	fail    error
}

func (c *countingStore) Update(ctx context.Context, id string, p Patch) (models.StoredItinerary, error) {
	c.mu.Lock()
	c.updates++
	fail := c.fail
	c.mu.Unlock()
	if fail != nil {
		return models.StoredItinerary{}, fail
	}
	return c.MemoryStore.Update(ctx, id, p)
}

func (c *countingStore) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updates
}

type fixture struct {
	store   *countingStore
	shares  shareTable
	svc     *Service
	changes *changeLog
	router  *httprouter.Router
	doc     models.StoredItinerary
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &countingStore{MemoryStore: NewMemoryStore()}
	shares := shareTable{}
	svc := NewService(store, shares, zap.NewNop(), autosave.WithDelay(time.Hour))
	changes := &changeLog{}
	svc.SetNotifier(changes)
	t.Cleanup(svc.Shutdown)

	doc, err := store.Create(context.Background(), "alice", Draft{Itinerary: parisTrip()})
	require.NoError(t, err)

	shares["view"] = &models.Share{ShareID: "view", ItineraryID: doc.ID, OwnerID: "alice", ShareMode: models.ShareModeView}
	shares["collab"] = &models.Share{ShareID: "collab", ItineraryID: doc.ID, OwnerID: "alice", ShareMode: models.ShareModeCollaborate}

	h := NewHandlers(svc, zap.NewNop())
	router := httprouter.New()
	router.POST("/api/itineraries", asUser(h.CreateItinerary))
	router.GET("/api/itineraries", asUser(h.GetItineraries))
	router.GET("/api/itineraries/:id", asUser(h.GetItinerary))
	router.PUT("/api/itineraries/:id", asUser(h.UpdateItinerary))
	router.DELETE("/api/itineraries/:id", asUser(h.DeleteItinerary))
	router.POST("/api/itineraries/:id/edit", asUser(h.EditItinerary))
	router.POST("/api/itineraries/:id/close", asUser(h.CloseItinerary))
	router.POST("/api/itineraries/:id/fork", asUser(h.ForkItinerary))

	return &fixture{store: store, shares: shares, svc: svc, changes: changes, router: router, doc: doc}
}

// asUser takes the caller from X-User so tests need not mint tokens.
func asUser(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if u := r.Header.Get("X-User"); u != "" {
			r = r.WithContext(middleware.WithSession(r.Context(), &models.Session{UserID: u, Username: u}))
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

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type viewBody struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Itinerary models.Itinerary `json:"itinerary"`
	Role      string           `json:"role"`
}

func TestCreateAndList(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/itineraries", "bob", createRequest{Itinerary: models.Itinerary{Title: "Rome", Days: []models.Day{{Day: 9}}}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[viewBody](t, rec)
	assert.Len(t, created.ID, 13)
	assert.Equal(t, "bob", created.UserID)
	assert.Equal(t, 1, created.Itinerary.Days[0].Day)
	assert.Equal(t, "owner", created.Role)

	rec = f.do(t, http.MethodGet, "/api/itineraries", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]models.ItinerarySummary](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Rome", list[0].Title)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPost, "/api/itineraries", "", createRequest{}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/itineraries", "bob", createRequest{}).Code)
}

func TestGetRolesAndAccess(t *testing.T) {
	f := newFixture(t)
	path := "/api/itineraries/" + f.doc.ID

	rec := f.do(t, http.MethodGet, path, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "owner", decode[viewBody](t, rec).Role)

	rec = f.do(t, http.MethodGet, path+"?share=view", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "viewer", decode[viewBody](t, rec).Role)

	rec = f.do(t, http.MethodGet, path+"?share=collab", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "collaborator", decode[viewBody](t, rec).Role)

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, path, "bob", nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, path+"?share=nope", "bob", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/itineraries/missing", "alice", nil).Code)
}

func TestEditIsDebouncedAndVisible(t *testing.T) {
	f := newFixture(t)
	path := "/api/itineraries/" + f.doc.ID

	rec := f.do(t, http.MethodPost, path+"/edit?share=collab", "bob", Op{Op: OpReorderDays, From: 2, To: 0})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[struct {
		Itinerary models.Itinerary `json:"itinerary"`
	}](t, rec).Itinerary
	assert.Equal(t, "Montmartre", got.Days[0].Activities[0])
	assert.Equal(t, 1, got.Days[0].Day)

	assert.Equal(t, 0, f.store.count(), "edit must not write synchronously")
	assert.Equal(t, 1, f.changes.len())

	// unsaved edits are served to other readers
	rec = f.do(t, http.MethodGet, path, "alice", nil)
	assert.Equal(t, "Montmartre", decode[viewBody](t, rec).Itinerary.Days[0].Activities[0])

	rec = f.do(t, http.MethodPost, path+"/close", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.store.count())

	stored, err := f.store.Get(context.Background(), f.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Montmartre", stored.Itinerary.Days[0].Activities[0])
}

func TestEditRejections(t *testing.T) {
	f := newFixture(t)
	path := "/api/itineraries/" + f.doc.ID + "/edit"

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPost, path+"?share=view", "bob", Op{Op: OpAddTip}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, path, "alice", Op{Op: OpRemoveTip, Index: 99}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, path, "alice", Op{Op: "explode"}).Code)
	assert.Equal(t, 0, f.changes.len())
}

func TestExplicitSaveSupersedesPendingAutosave(t *testing.T) {
	f := newFixture(t)
	path := "/api/itineraries/" + f.doc.ID

	rec := f.do(t, http.MethodPost, path+"/edit", "alice", Op{Op: OpSetField, Field: "title", Value: json.RawMessage(`"Draft title"`)})
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parisTrip()
	doc.Title = "Final title"
	rec = f.do(t, http.MethodPut, path, "alice", doc)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, f.store.count())

	// closing must not resurrect the superseded draft
	f.do(t, http.MethodPost, path+"/close", "alice", nil)
	assert.Equal(t, 1, f.store.count())
	stored, err := f.store.Get(context.Background(), f.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final title", stored.Itinerary.Title)
}

func TestExplicitSaveFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	f.store.fail = errors.New("disk full")

	rec := f.do(t, http.MethodPut, "/api/itineraries/"+f.doc.ID, "alice", parisTrip())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to save itinerary")
}

func TestDeleteIsOwnerOnlyAndSoft(t *testing.T) {
	f := newFixture(t)
	path := "/api/itineraries/" + f.doc.ID

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodDelete, path, "bob", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, path, "alice", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, path, "alice", nil).Code)

	_, err := f.store.Get(context.Background(), f.doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, f.store.docs[f.doc.ID].Deleted)
}

func TestForkThroughShare(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/itineraries/"+f.doc.ID+"/fork?share=view", "bob", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	forked := decode[viewBody](t, rec)
	assert.NotEqual(t, f.doc.ID, forked.ID)
	assert.Equal(t, "bob", forked.UserID)
	assert.Equal(t, "Forked - "+f.doc.Itinerary.Title, forked.Itinerary.Title)

	stored, err := f.store.Get(context.Background(), forked.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ForkedFrom)
	assert.Equal(t, f.doc.ID, *stored.ForkedFrom)

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPost, "/api/itineraries/"+f.doc.ID+"/fork", "carol", nil).Code)
}

func TestServiceResolveShareMismatch(t *testing.T) {
	f := newFixture(t)
	f.shares["other"] = &models.Share{ShareID: "other", ItineraryID: "elsewhere", OwnerID: "alice", ShareMode: models.ShareModeCollaborate}

	_, err := f.svc.Resolve(context.Background(), f.doc.ID, "bob", "other")
	assert.ErrorIs(t, err, access.ErrForbidden)

	acc, err := f.svc.ResolveShare(context.Background(), "collab", "bob")
	require.NoError(t, err)
	assert.Equal(t, access.Collaborator, acc.Role)
}

// gatedStore parks every Update until release is closed.
type gatedStore struct {
	*MemoryStore
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) Update(ctx context.Context, id string, p Patch) (models.StoredItinerary, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.MemoryStore.Update(ctx, id, p)
}

func TestEditDuringCloseFlushKeepsFlushedEdit(t *testing.T) {
	ctx := context.Background()
	store := &gatedStore{MemoryStore: NewMemoryStore(), entered: make(chan struct{}, 4), release: make(chan struct{})}
	svc := NewService(store, shareTable{}, zap.NewNop(), autosave.WithDelay(time.Hour))
	doc, err := store.Create(ctx, "alice", Draft{Itinerary: parisTrip()})
	require.NoError(t, err)

	_, err = svc.Edit(ctx, doc.ID, "alice", "", Op{Op: OpSetField, Field: "title", Value: json.RawMessage(`"Edited title"`)})
	require.NoError(t, err)

	closed := make(chan error, 1)
	go func() {
		_, err := svc.Close(ctx, doc.ID, "alice", "")
		closed <- err
	}()
	<-store.entered

	acc, err := svc.Resolve(ctx, doc.ID, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, "Edited title", acc.Doc.Itinerary.Title)

	type result struct {
		it  models.Itinerary
		err error
	}
	edited := make(chan result, 1)
	go func() {
		it, err := svc.Edit(ctx, doc.ID, "alice", "", Op{Op: OpAddTip})
		edited <- result{it, err}
	}()

	close(store.release)
	require.NoError(t, <-closed)
	res := <-edited
	require.NoError(t, res.err)
	assert.Equal(t, "Edited title", res.it.Title)
	assert.Equal(t, PlaceholderTip, res.it.Tips[len(res.it.Tips)-1])

	svc.Shutdown()
	stored, err := store.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edited title", stored.Itinerary.Title)
	assert.Len(t, stored.Itinerary.Tips, 3)
}

func TestIdleEditingSessionsAreReleased(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, shareTable{}, zap.NewNop(), autosave.WithDelay(5*time.Millisecond))
	t.Cleanup(svc.Shutdown)
	doc, err := store.Create(context.Background(), "alice", Draft{Itinerary: parisTrip()})
	require.NoError(t, err)

	_, err = svc.Edit(context.Background(), doc.ID, "alice", "", Op{Op: OpAddTip})
	require.NoError(t, err)
	assert.Equal(t, 1, svc.OpenSessions())

	svc.StartSweeper(5*time.Millisecond, 20*time.Millisecond)
	assert.Eventually(t, func() bool { return svc.OpenSessions() == 0 }, time.Second, 5*time.Millisecond)

	stored, err := store.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Itinerary.Tips, 3)
}
