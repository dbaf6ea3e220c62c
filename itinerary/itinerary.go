package itinerary

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"tripweaver/access"
	"tripweaver/models"
	"tripweaver/utils"
)

const requestTimeout = 5 * time.Second

// Handlers serves /api/itineraries.
type Handlers struct {
	svc    *Service
	logger *zap.Logger
}

func NewHandlers(svc *Service, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.L()
	}
	return &Handlers{svc: svc, logger: logger}
}

// View is an itinerary as returned to clients, with the caller's role.
type View struct {
	models.StoredItinerary
	Role access.Role `json:"role"`
}

type createRequest struct {
	Itinerary   models.Itinerary        `json:"itinerary"`
	Preferences *models.TripPreferences `json:"preferences,omitempty"`
	IsDemo      bool                    `json:"isDemo"`
}

// RespondError maps service errors onto status codes.
func RespondError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Itinerary not found")
	case errors.Is(err, access.ErrForbidden):
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, ErrIndexOutOfRange), errors.Is(err, ErrUnknownOp),
		errors.Is(err, ErrUnknownField), errors.Is(err, ErrInvalidValue):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

// POST /api/itineraries
func (h *Handlers) CreateItinerary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req createRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if strings.TrimSpace(req.Itinerary.Title) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Itinerary title is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	doc, err := h.svc.Store().Create(ctx, userID, Draft{
		Itinerary:   req.Itinerary,
		Preferences: req.Preferences,
		IsDemo:      req.IsDemo,
	})
	if err != nil {
		h.logger.Error("create itinerary", zap.String("user_id", userID), zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Error inserting itinerary")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, View{StoredItinerary: doc, Role: access.Owner})
}

// GET /api/itineraries
func (h *Handlers) GetItineraries(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := h.svc.Store().List(ctx, userID)
	if err != nil {
		h.logger.Error("list itineraries", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching itineraries")
		return
	}
	if list == nil {
		list = []models.ItinerarySummary{}
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// GET /api/itineraries/:id
func (h *Handlers) GetItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	acc, err := h.svc.Resolve(ctx, ps.ByName("id"), utils.GetUserIDFromRequest(r), r.URL.Query().Get("share"))
	if err != nil {
		RespondError(w, err, "Error fetching itinerary")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, View{StoredItinerary: acc.Doc, Role: acc.Role})
}

// PUT /api/itineraries/:id
func (h *Handlers) UpdateItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var doc models.Itinerary
	if err := utils.DecodeJSON(w, r, &doc); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	id := ps.ByName("id")
	saved, err := h.svc.Save(ctx, id, utils.GetUserIDFromRequest(r), r.URL.Query().Get("share"), doc)
	if err != nil {
		h.logger.Warn("explicit save failed", zap.String("itinerary_id", id), zap.Error(err))
		RespondError(w, err, "Failed to save itinerary")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":   true,
		"itinerary": saved,
	})
}

// DELETE /api/itineraries/:id
func (h *Handlers) DeleteItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.Delete(ctx, ps.ByName("id"), utils.GetUserIDFromRequest(r)); err != nil {
		RespondError(w, err, "Error deleting itinerary")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Itinerary deleted successfully"})
}

// POST /api/itineraries/:id/edit
func (h *Handlers) EditItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var op Op
	if err := utils.DecodeJSON(w, r, &op); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid edit operation")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	it, err := h.svc.Edit(ctx, ps.ByName("id"), utils.GetUserIDFromRequest(r), r.URL.Query().Get("share"), op)
	if err != nil {
		RespondError(w, err, "Error applying edit")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"itinerary": it})
}

// POST /api/itineraries/:id/close
func (h *Handlers) CloseItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	closed, err := h.svc.Close(ctx, ps.ByName("id"), utils.GetUserIDFromRequest(r), r.URL.Query().Get("share"))
	if err != nil {
		RespondError(w, err, "Error closing editing session")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"closed": closed})
}

// POST /api/itineraries/:id/fork
func (h *Handlers) ForkItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	doc, err := h.svc.Fork(ctx, ps.ByName("id"), userID, r.URL.Query().Get("share"))
	if err != nil {
		RespondError(w, err, "Error forking itinerary")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, View{StoredItinerary: doc, Role: access.Owner})
}
