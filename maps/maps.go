package maps

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"tripweaver/utils"
)

// GetMapConfig serves GET /api/maps/config.
func GetMapConfig(l *Loader, logger *zap.Logger) httprouter.Handle {
	if logger == nil {
		logger = zap.L()
	}
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		cfg, err := l.Wait(ctx)
		switch {
		case errors.Is(err, ErrNotConfigured):
			utils.RespondWithError(w, http.StatusServiceUnavailable, "Maps are not configured")
			return
		case errors.Is(err, context.DeadlineExceeded):
			utils.RespondWithError(w, http.StatusGatewayTimeout, "Maps configuration is still loading")
			return
		case err != nil:
			logger.Error("maps config", zap.Error(err))
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load maps configuration")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, cfg)
	}
}
