package handlers

import (
	"net/http"
	"strconv"

	"github.com/isdelr/contacts-api/internal/services"
	"github.com/rs/zerolog/log"
)

// EventHandler handles HTTP requests related to account activity.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// GetRecent handles the request to get the current account's recent activity.
func (h *EventHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}

	limitStr := r.URL.Query().Get("limit")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20 // Default limit
	}

	events, err := h.service.GetRecentEvents(r.Context(), account.ID, limit)
	if err != nil {
		log.Error().Err(err).Str("account_id", account.ID).Msg("Failed to retrieve events")
		writeErrorMessage(w, http.StatusInternalServerError, "Failed to retrieve events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}
