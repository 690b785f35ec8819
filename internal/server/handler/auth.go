package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/bankdesk/internal/domain"
)

// AuthService is the two-factor surface the auth handler forwards to.
type AuthService interface {
	Verify(ctx context.Context, req domain.VerifyRequest) (domain.AuthResponse, error)
	Resend(ctx context.Context, req domain.ResendRequest) (domain.TwoFactorResponse, error)
	ValidatePhone(ctx context.Context, req domain.ValidatePhoneRequest) (domain.TwoFactorResponse, error)
	SendTestCode(ctx context.Context, req domain.SendTestCodeRequest) (domain.TwoFactorResponse, error)
}

// AuthHandler relays 2FA calls from the UI to the auth API.
type AuthHandler struct {
	auth   AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logHandler(logger, "auth")}
}

// Verify submits a 2FA code.
// POST /api/auth/2fa/verify
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := h.auth.Verify(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "Verification failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Resend asks for a new code.
// POST /api/auth/2fa/resend
func (h *AuthHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var req domain.ResendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := h.auth.Resend(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "Failed to resend code")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ValidatePhone checks a phone number.
// POST /api/auth/2fa/validate-phone
func (h *AuthHandler) ValidatePhone(w http.ResponseWriter, r *http.Request) {
	var req domain.ValidatePhoneRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := h.auth.ValidatePhone(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "Phone validation failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SendTestCode sends a one-off test code.
// POST /api/auth/2fa/send-test-code
func (h *AuthHandler) SendTestCode(w http.ResponseWriter, r *http.Request) {
	var req domain.SendTestCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := h.auth.SendTestCode(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "Failed to send test code")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
