package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/bankdesk/internal/domain"
	"github.com/alanyoungcy/bankdesk/internal/notify"
	"github.com/alanyoungcy/bankdesk/internal/platform/twofactor"
)

// Default user-facing messages for failed 2FA calls. A message sent by the
// auth server takes precedence.
const (
	MsgVerifyFailed        = "Verification failed"
	MsgResendFailed        = "Failed to resend code"
	MsgValidatePhoneFailed = "Phone validation failed"
	MsgSendTestCodeFailed  = "Failed to send test code"
)

// AuthService forwards two-factor verification calls to the auth API. It
// keeps no state between calls and never retries.
type AuthService struct {
	api    domain.TwoFactorAPI
	alerts *alertDispatcher
	logger *slog.Logger
}

// NewAuthService creates an AuthService. alerts may be nil.
func NewAuthService(api domain.TwoFactorAPI, alerts Alerter, logger *slog.Logger) *AuthService {
	logger = logger.With(slog.String("component", "auth_service"))
	return &AuthService{
		api:    api,
		alerts: &alertDispatcher{alerts: alerts, logger: logger},
		logger: logger,
	}
}

// Verify submits a verification code for a session.
func (s *AuthService) Verify(ctx context.Context, req domain.VerifyRequest) (domain.AuthResponse, error) {
	resp, err := s.api.Verify(ctx, req)
	if err != nil {
		return domain.AuthResponse{}, s.fail(ctx, "twofactor.verify", MsgVerifyFailed, err)
	}
	return resp, nil
}

// Resend requests a new code for a session.
func (s *AuthService) Resend(ctx context.Context, req domain.ResendRequest) (domain.TwoFactorResponse, error) {
	resp, err := s.api.Resend(ctx, req)
	if err != nil {
		return domain.TwoFactorResponse{}, s.fail(ctx, "twofactor.resend", MsgResendFailed, err)
	}
	return resp, nil
}

// ValidatePhone checks that a phone number can receive codes.
func (s *AuthService) ValidatePhone(ctx context.Context, req domain.ValidatePhoneRequest) (domain.TwoFactorResponse, error) {
	resp, err := s.api.ValidatePhone(ctx, req)
	if err != nil {
		return domain.TwoFactorResponse{}, s.fail(ctx, "twofactor.validate_phone", MsgValidatePhoneFailed, err)
	}
	return resp, nil
}

// SendTestCode sends a one-off test code to a phone number.
func (s *AuthService) SendTestCode(ctx context.Context, req domain.SendTestCodeRequest) (domain.TwoFactorResponse, error) {
	resp, err := s.api.SendTestCode(ctx, req)
	if err != nil {
		return domain.TwoFactorResponse{}, s.fail(ctx, "twofactor.send_test_code", MsgSendTestCodeFailed, err)
	}
	return resp, nil
}

// fail logs err and wraps it as a domain error. The server's own message, if
// it sent one, replaces fallback.
func (s *AuthService) fail(ctx context.Context, op, fallback string, err error) error {
	msg := fallback
	if server := twofactor.ServerMessage(err); server != "" {
		msg = server
	}

	s.logger.WarnContext(ctx, "two-factor call failed",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	if !errors.Is(err, context.Canceled) {
		s.alerts.send(ctx, notify.EventTwoFactorFailed, "Two-factor call failed",
			fmt.Sprintf("%s: %v", op, err))
	}
	return domain.NewError(op, msg, err)
}
