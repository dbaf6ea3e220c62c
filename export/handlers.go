package export

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"tripweaver/access"
	"tripweaver/itinerary"
	"tripweaver/utils"
)

// Handlers serves the PDF and email exports of an itinerary.
type Handlers struct {
	svc     *itinerary.Service
	mailer  Mailer
	baseURL string
	logger  *zap.Logger
}

// NewHandlers returns export handlers. A nil mailer disables email.
// baseURL is the public frontend origin used to build share links.
func NewHandlers(svc *itinerary.Service, mailer Mailer, baseURL string, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.L()
	}
	return &Handlers{svc: svc, mailer: mailer, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

func (h *Handlers) resolve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) (itinerary.Access, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	acc, err := h.svc.Resolve(ctx, ps.ByName("id"), utils.GetUserIDFromRequest(r), r.URL.Query().Get("share"))
	if err == nil {
		err = access.Require(acc.Role, access.Export)
	}
	if err != nil {
		itinerary.RespondError(w, err, "Failed to load itinerary")
		return itinerary.Access{}, false
	}
	return acc, true
}

func (h *Handlers) shareURL(acc itinerary.Access) string {
	if acc.Share == nil || h.baseURL == "" {
		return ""
	}
	return h.baseURL + "/share/" + acc.Share.ShareID
}

// GET /api/itineraries/:id/pdf
func (h *Handlers) DownloadPDF(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	acc, ok := h.resolve(w, r, ps)
	if !ok {
		return
	}

	data, err := RenderPDF(acc.Doc.Itinerary, h.shareURL(acc))
	if err != nil {
		h.logger.Error("render pdf", zap.String("itinerary_id", acc.Doc.ID), zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	name := utils.SanitizeFilename(acc.Doc.Itinerary.Title)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

type emailRequest struct {
	To      string `json:"to"`
	Message string `json:"message,omitempty"`
}

// POST /api/itineraries/:id/email
func (h *Handlers) EmailItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if h.mailer == nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Email is not configured")
		return
	}

	var req emailRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(req.To))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid email address")
		return
	}

	acc, ok := h.resolve(w, r, ps)
	if !ok {
		return
	}

	it := acc.Doc.Itinerary
	text := RenderMarkdown(it)
	body, err := RenderHTML(it)
	if err != nil {
		h.logger.Error("render email", zap.String("itinerary_id", acc.Doc.ID), zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to render itinerary")
		return
	}
	if note := strings.TrimSpace(req.Message); note != "" {
		text = note + "\n\n" + text
		body = "<p>" + html.EscapeString(note) + "</p>\n" + body
	}
	if link := h.shareURL(acc); link != "" {
		text += "\nOpen it online: " + link + "\n"
		body += fmt.Sprintf("<p><a href=%q>Open it online</a></p>\n", html.EscapeString(link))
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()
	err = h.mailer.Send(ctx, Message{
		To:      addr.Address,
		Subject: "Trip itinerary: " + it.Title,
		Text:    text,
		HTML:    body,
	})
	if err != nil {
		h.logger.Warn("send itinerary email", zap.String("itinerary_id", acc.Doc.ID), zap.Error(err))
		utils.RespondWithError(w, http.StatusBadGateway, "Failed to send email")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"sent": true, "to": addr.Address})
}
