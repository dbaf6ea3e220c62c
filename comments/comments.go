package comments

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"tripweaver/access"
	"tripweaver/itinerary"
	"tripweaver/models"
	"tripweaver/share"
	"tripweaver/utils"
)

const (
	requestTimeout   = 5 * time.Second
	maxCommentLength = 4000
)

// Handlers serves /api/shares/:shareid/comments.
type Handlers struct {
	store  Store
	svc    *itinerary.Service
	logger *zap.Logger
}

func NewHandlers(store Store, svc *itinerary.Service, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.L()
	}
	return &Handlers{store: store, svc: svc, logger: logger}
}

func respondError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Comment not found")
	case errors.Is(err, itinerary.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Itinerary not found")
	case errors.Is(err, access.ErrForbidden):
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, share.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Share not found")
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

// resolve loads the share's itinerary and checks the caller may use c on it.
func (h *Handlers) resolve(ctx context.Context, r *http.Request, shareID string, c access.Capability) (itinerary.Access, error) {
	acc, err := h.svc.ResolveShare(ctx, shareID, utils.GetUserIDFromRequest(r))
	if err != nil {
		return acc, err
	}
	return acc, access.Require(acc.Role, c)
}

// POST /api/shares/:shareid/comments
func (h *Handlers) CreateComment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body struct {
		Content  string `json:"content"`
		DayIndex *int   `json:"dayIndex"`
	}
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	content := strings.TrimSpace(body.Content)
	if content == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Comment cannot be empty")
		return
	}
	if len(content) > maxCommentLength {
		utils.RespondWithError(w, http.StatusBadRequest, "Comment is too long")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	shareID := ps.ByName("shareid")
	acc, err := h.resolve(ctx, r, shareID, access.Comment)
	if err != nil {
		respondError(w, err, "Error creating comment")
		return
	}
	if body.DayIndex != nil {
		if err := itinerary.CheckDayIndex(acc.Doc.Itinerary, *body.DayIndex); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "dayIndex is out of range")
			return
		}
	}

	userName := utils.GetUsernameFromRequest(r)
	if userName == "" {
		userName = userID
	}
	c, err := h.store.Create(ctx, models.Comment{
		ShareID:  shareID,
		DayIndex: body.DayIndex,
		UserID:   userID,
		UserName: userName,
		Content:  content,
	})
	if err != nil {
		h.logger.Error("create comment", zap.String("share_id", shareID), zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "DB insert failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, c)
}

// GET /api/shares/:shareid/comments[?day=N|general]
func (h *Handlers) GetComments(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var f Filter
	switch day := r.URL.Query().Get("day"); day {
	case "":
	case "general":
		f.General = true
	default:
		n, err := strconv.Atoi(day)
		if err != nil || n < 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "day must be a day index or \"general\"")
			return
		}
		f.Day = &n
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	shareID := ps.ByName("shareid")
	if _, err := h.resolve(ctx, r, shareID, access.View); err != nil {
		respondError(w, err, "Failed to fetch comments")
		return
	}
	list, err := h.store.List(ctx, shareID, f)
	if err != nil {
		h.logger.Error("list comments", zap.String("share_id", shareID), zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch comments")
		return
	}
	if list == nil {
		list = []models.Comment{}
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// DELETE /api/shares/:shareid/comments/:commentid
// The author or the itinerary owner may delete.
func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	shareID, commentID := ps.ByName("shareid"), ps.ByName("commentid")
	acc, err := h.resolve(ctx, r, shareID, access.View)
	if err != nil {
		respondError(w, err, "Delete failed")
		return
	}
	c, err := h.store.Get(ctx, shareID, commentID)
	if err != nil {
		respondError(w, err, "Delete failed")
		return
	}
	if c.UserID != userID && acc.Role != access.Owner {
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		return
	}
	if err := h.store.Delete(ctx, shareID, commentID); err != nil {
		respondError(w, err, "Delete failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Comment deleted"})
}

// POST /api/shares/:shareid/comments/:commentid/resolve
// Body {"resolved": false} reopens; an empty body resolves.
func (h *Handlers) ResolveComment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	body := struct {
		Resolved *bool `json:"resolved"`
	}{}
	if r.ContentLength != 0 {
		if err := utils.DecodeJSON(w, r, &body); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}
	resolved := body.Resolved == nil || *body.Resolved

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	shareID, commentID := ps.ByName("shareid"), ps.ByName("commentid")
	if _, err := h.resolve(ctx, r, shareID, access.ResolveComment); err != nil {
		respondError(w, err, "Update failed")
		return
	}
	c, err := h.store.SetResolved(ctx, shareID, commentID, resolved)
	if err != nil {
		respondError(w, err, "Update failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, c)
}
