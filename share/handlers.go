package share

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tripweaver/access"
	"tripweaver/itinerary"
	"tripweaver/models"
	"tripweaver/utils"
)

const requestTimeout = 5 * time.Second

// Handlers serves /api/shares.
type Handlers struct {
	store  Store
	views  ViewCounter
	svc    *itinerary.Service
	logger *zap.Logger
}

func NewHandlers(store Store, views ViewCounter, svc *itinerary.Service, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.L()
	}
	return &Handlers{store: store, views: views, svc: svc, logger: logger}
}

type createRequest struct {
	ItineraryID string           `json:"itineraryId"`
	ShareMode   models.ShareMode `json:"shareMode"`
	IsPublic    bool             `json:"isPublic"`
}

type shareView struct {
	Share *models.Share `json:"share"`
	Role  access.Role   `json:"role"`
}

type sharedItinerary struct {
	Share     *models.Share  `json:"share"`
	Role      access.Role    `json:"role"`
	Itinerary itinerary.View `json:"itinerary"`
}

func respondError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, ErrNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, "Share not found")
		return
	}
	itinerary.RespondError(w, err, fallback)
}

// withPending adds views not yet flushed to the stored count.
func (h *Handlers) withPending(ctx context.Context, s *models.Share) {
	n, err := h.views.Pending(ctx, s.ShareID)
	if err != nil {
		h.logger.Warn("reading pending views", zap.String("share_id", s.ShareID), zap.Error(err))
		return
	}
	s.ViewCount += n
}

// POST /api/shares
func (h *Handlers) CreateShare(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req createRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil || req.ItineraryID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.ShareMode == "" {
		req.ShareMode = models.ShareModeView
	}
	if !req.ShareMode.Valid() {
		utils.RespondWithError(w, http.StatusBadRequest, "shareMode must be view or collaborate")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	acc, err := h.svc.Resolve(ctx, req.ItineraryID, userID, "")
	if err == nil {
		err = access.Require(acc.Role, access.ManageShares)
	}
	if err != nil {
		respondError(w, err, "Error creating share")
		return
	}

	s, err := h.store.Create(ctx, models.Share{
		ItineraryID: req.ItineraryID,
		OwnerID:     acc.Doc.UserID,
		ShareMode:   req.ShareMode,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		h.logger.Error("create share", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Error creating share")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, s)
}

// GET /api/shares
func (h *Handlers) ListShares(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	shares, err := h.store.ListByOwner(ctx, userID)
	if err != nil {
		h.logger.Error("list shares", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching shares")
		return
	}
	for i := range shares {
		h.withPending(ctx, &shares[i])
	}
	utils.RespondWithJSON(w, http.StatusOK, shares)
}

// GET /api/shares/:shareid
func (h *Handlers) GetShare(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	acc, err := h.svc.ResolveShare(ctx, ps.ByName("shareid"), utils.GetUserIDFromRequest(r))
	if err != nil {
		respondError(w, err, "Error fetching share")
		return
	}
	h.withPending(ctx, acc.Share)
	utils.RespondWithJSON(w, http.StatusOK, shareView{Share: acc.Share, Role: acc.Role})
}

// loadOwned returns the share if the caller owns it.
func (h *Handlers) loadOwned(ctx context.Context, r *http.Request, shareID string) (*models.Share, error) {
	userID := utils.GetUserIDFromRequest(r)
	s, err := h.store.GetShare(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if userID == "" || access.Resolve(userID, s.OwnerID, s) != access.Owner {
		return nil, access.ErrForbidden
	}
	return s, nil
}

// PUT /api/shares/:shareid
func (h *Handlers) UpdateShare(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var u Update
	if err := utils.DecodeJSON(w, r, &u); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if u.ShareMode != nil && !u.ShareMode.Valid() {
		utils.RespondWithError(w, http.StatusBadRequest, "shareMode must be view or collaborate")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	shareID := ps.ByName("shareid")
	if _, err := h.loadOwned(ctx, r, shareID); err != nil {
		respondError(w, err, "Error updating share")
		return
	}
	s, err := h.store.Update(ctx, shareID, u)
	if err != nil {
		respondError(w, err, "Error updating share")
		return
	}
	h.withPending(ctx, s)
	utils.RespondWithJSON(w, http.StatusOK, s)
}

// DELETE /api/shares/:shareid
func (h *Handlers) DeleteShare(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	shareID := ps.ByName("shareid")
	if _, err := h.loadOwned(ctx, r, shareID); err != nil {
		respondError(w, err, "Error deleting share")
		return
	}
	if err := h.store.Delete(ctx, shareID); err != nil {
		respondError(w, err, "Error deleting share")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Share deleted successfully"})
}

// POST /api/shares/:shareid/view
// Records one view and returns the shared itinerary. Only callers who may see
// the itinerary are counted.
func (h *Handlers) ViewShare(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	shareID := ps.ByName("shareid")
	userID := utils.GetUserIDFromRequest(r)

	var (
		acc     itinerary.Access
		pending int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		acc, err = h.svc.ResolveShare(gctx, shareID, userID)
		return err
	})
	g.Go(func() error {
		n, err := h.views.Pending(gctx, shareID)
		if err != nil {
			h.logger.Warn("reading pending views", zap.String("share_id", shareID), zap.Error(err))
			return nil
		}
		pending = n
		return nil
	})
	if err := g.Wait(); err != nil {
		respondError(w, err, "Error loading shared itinerary")
		return
	}

	if err := h.views.Incr(ctx, shareID); err != nil {
		h.logger.Warn("counting share view", zap.String("share_id", shareID), zap.Error(err))
	} else {
		pending++
	}
	acc.Share.ViewCount += pending

	utils.RespondWithJSON(w, http.StatusOK, sharedItinerary{
		Share:     acc.Share,
		Role:      acc.Role,
		Itinerary: itinerary.View{StoredItinerary: acc.Doc, Role: acc.Role},
	})
}
