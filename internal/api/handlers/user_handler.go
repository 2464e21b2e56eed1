package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/contacts-api/internal/auth"
	"github.com/isdelr/contacts-api/internal/avatar"
	"github.com/isdelr/contacts-api/internal/common"
	"github.com/isdelr/contacts-api/internal/models"
	"github.com/isdelr/contacts-api/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for registration, sessions and profile.
type UserHandler struct {
	service        services.AccountServiceProvider
	avatars        *avatar.Processor
	maxUploadBytes int64
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.AccountServiceProvider, avatars *avatar.Processor, maxUploadBytes int64) *UserHandler {
	return &UserHandler{service: service, avatars: avatars, maxUploadBytes: maxUploadBytes}
}

type registeredUser struct {
	Email        string              `json:"email"`
	Subscription models.Subscription `json:"subscription"`
	Verify       bool                `json:"verify"`
}

// Register handles new account registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload services.RegisterInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	res, err := h.service.Register(r.Context(), payload)
	if err != nil {
		if !errors.Is(err, common.ErrValidation) {
			log.Warn().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		}
		writeError(w, err, "User not found")
		return
	}

	msg := "Registration successful. Please check your email to verify your account."
	if !res.EmailSent {
		msg += " However, email sending failed."
	}
	writeSuccess(w, http.StatusCreated, map[string]interface{}{
		"message":   msg,
		"emailSent": res.EmailSent,
		"user": registeredUser{
			Email:        res.Account.Email,
			Subscription: res.Account.Subscription,
			Verify:       res.Account.Verified,
		},
	})
}

// Login handles credential checks and token issuance.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload services.LoginInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	res, err := h.service.Login(r.Context(), payload)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed authentication attempt")
		writeError(w, err, "User not found")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"token": res.Token,
		"user":  res.Account.Summary(),
	})
}

// Logout revokes the token the request was authenticated with.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	account, ok := auth.AccountFromContext(r.Context())
	token, hasToken := auth.TokenFromContext(r.Context())
	if !ok || !hasToken {
		writeErrorMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.service.Logout(r.Context(), account.ID, token); err != nil {
		log.Error().Err(err).Str("account_id", account.ID).Msg("Failed to log out")
		writeError(w, err, "User not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LogoutAll revokes every session of the current account.
func (h *UserHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}
	if err := h.service.LogoutAll(r.Context(), account.ID); err != nil {
		log.Error().Err(err).Str("account_id", account.ID).Msg("Failed to end sessions")
		writeError(w, err, "User not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Current returns the authenticated account's summary.
func (h *UserHandler) Current(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, account.Summary())
}

// UpdateSubscription changes the current account's tier.
func (h *UserHandler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}
	var payload services.SubscriptionInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	updated, err := h.service.UpdateSubscription(r.Context(), account.ID, payload)
	if err != nil {
		writeError(w, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Subscription updated successfully",
		"user":    updated.Summary(),
	})
}

// UpdateAvatar stores a resized copy of the uploaded "avatar" file.
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "Invalid upload")
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "Missing file field avatar")
		return
	}
	defer file.Close()

	url, err := h.avatars.Save(account.ID, header.Filename, file)
	if err != nil {
		if errors.Is(err, avatar.ErrUnsupportedImage) {
			writeErrorMessage(w, http.StatusBadRequest, "Unsupported image")
			return
		}
		log.Error().Err(err).Str("account_id", account.ID).Msg("Failed to store avatar")
		writeErrorMessage(w, http.StatusInternalServerError, "Failed to process avatar")
		return
	}

	updated, err := h.service.UpdateAvatarURL(r.Context(), account.ID, url)
	if err != nil {
		writeError(w, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Avatar updated successfully",
		"avatarURL": updated.AvatarURL,
	})
}

// SendVerification (re)sends the verification email for a pending account.
func (h *UserHandler) SendVerification(w http.ResponseWriter, r *http.Request) {
	h.resend(w, r, http.StatusCreated)
}

// ResendVerification issues a new verification code and emails it.
func (h *UserHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	h.resend(w, r, http.StatusOK)
}

func (h *UserHandler) resend(w http.ResponseWriter, r *http.Request, status int) {
	var payload services.EmailInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	sent, err := h.service.ResendVerification(r.Context(), payload)
	if err != nil {
		writeError(w, err, "User not found")
		return
	}

	msg := "Verification email sent"
	if !sent {
		msg = "Verification code renewed, but email sending failed"
	}
	writeJSON(w, status, map[string]interface{}{
		"message":   msg,
		"emailSent": sent,
	})
}

// Verify confirms the account holding the code in the URL.
func (h *UserHandler) Verify(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if _, err := h.service.ConfirmVerification(r.Context(), code); err != nil {
		writeError(w, err, "User not found")
		return
	}
	writeMessage(w, http.StatusOK, "Verification successful")
}

func currentAccount(w http.ResponseWriter, r *http.Request) (models.Account, bool) {
	account, ok := auth.AccountFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve account from context")
		writeErrorMessage(w, http.StatusUnauthorized, "Unauthorized")
		return models.Account{}, false
	}
	return account, true
}
