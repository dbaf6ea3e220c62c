package generator

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"tripweaver/itinerary"
	"tripweaver/models"
	"tripweaver/utils"
)

// Handlers serves POST /api/itineraries/generate.
type Handlers struct {
	gen    *Generator
	store  itinerary.Store
	logger *zap.Logger
}

func NewHandlers(gen *Generator, store itinerary.Store, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.L()
	}
	return &Handlers{gen: gen, store: store, logger: logger}
}

type generateResponse struct {
	Result
	ID string `json:"id,omitempty"`
}

// POST /api/itineraries/generate[?save=true]
// Signed-in callers may ask for the result to be stored in their account.
func (h *Handlers) GenerateItinerary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var prefs models.TripPreferences
	if err := utils.DecodeJSON(w, r, &prefs); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := ValidatePreferences(prefs); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{
				"error":  "Invalid trip preferences",
				"fields": verr.Fields,
			})
			return
		}
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := h.gen.Generate(r.Context(), prefs)
	out := generateResponse{Result: res}

	userID := utils.GetUserIDFromRequest(r)
	save, _ := strconv.ParseBool(r.URL.Query().Get("save"))
	if save && userID != "" && h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		doc, err := h.store.Create(ctx, userID, itinerary.Draft{
			Itinerary:   res.Itinerary,
			Preferences: &prefs,
			IsDemo:      res.IsDemo,
		})
		if err != nil {
			// the generated plan is still useful to the client
			h.logger.Error("store generated itinerary", zap.String("user_id", userID), zap.Error(err))
		} else {
			out.ID = doc.ID
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, out)
}
