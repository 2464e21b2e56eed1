package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/isdelr/contacts-api/internal/models"
	"github.com/isdelr/contacts-api/internal/services"
)

// ContactHandler handles HTTP requests related to contacts. Every handler
// runs behind the auth middleware and works on the current account's records.
type ContactHandler struct {
	service services.ContactServiceProvider
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(service services.ContactServiceProvider) *ContactHandler {
	return &ContactHandler{service: service}
}

// contactID reads and checks the {id} URL parameter.
func contactID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "Invalid contact ID")
		return "", false
	}
	return id, true
}

// GetAll handles the request to get a page of contacts.
func (h *ContactHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.service.ListContacts(r.Context(), account.ID, page, limit)
	if err != nil {
		writeError(w, err, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetFavorites lists contacts, filtered by ?favorite=true|false when given.
func (h *ContactHandler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}

	var filter *bool
	if raw := r.URL.Query().Get("favorite"); raw != "" {
		v := raw == "true"
		filter = &v
	}

	contacts, err := h.service.ListByFavorite(r.Context(), account.ID, filter)
	if err != nil {
		writeError(w, err, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

// Get handles the request to get a single contact by its ID.
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}
	id, ok := contactID(w, r)
	if !ok {
		return
	}

	contact, err := h.service.GetContact(r.Context(), account.ID, id)
	if err != nil {
		writeError(w, err, "Contact not found")
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// Create handles the request to create a new contact.
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}
	var payload services.ContactInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	contact, err := h.service.CreateContact(r.Context(), account.ID, payload)
	if err != nil {
		writeError(w, err, "Not found")
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

// Update handles a partial update of a contact.
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}
	var patch models.ContactPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	id, ok := contactID(w, r)
	if !ok {
		return
	}

	contact, err := h.service.UpdateContact(r.Context(), account.ID, id, patch)
	if err != nil {
		writeError(w, err, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// UpdateFavorite sets the favorite flag of a contact.
func (h *ContactHandler) UpdateFavorite(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}
	var payload struct {
		Favorite *bool `json:"favorite"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	if payload.Favorite == nil {
		writeErrorMessage(w, http.StatusBadRequest, "missing field favorite")
		return
	}
	id, ok := contactID(w, r)
	if !ok {
		return
	}

	contact, err := h.service.SetFavorite(r.Context(), account.ID, id, *payload.Favorite)
	if err != nil {
		writeError(w, err, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// Delete handles the request to delete a contact.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}
	id, ok := contactID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteContact(r.Context(), account.ID, id); err != nil {
		writeError(w, err, "Contact not found")
		return
	}
	writeMessage(w, http.StatusOK, "Contact deleted successfully")
}
