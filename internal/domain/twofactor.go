package domain

import "context"

// VerifyRequest submits the code the user received for a 2FA session.
type VerifyRequest struct {
	SessionID string `json:"sessionId"`
	Code      string `json:"code"`
}

// ResendRequest asks for a fresh code on an existing session. Method is the
// delivery channel ("sms", "email"); empty lets the server choose.
type ResendRequest struct {
	SessionID string `json:"sessionId"`
	Method    string `json:"method,omitempty"`
}

// ValidatePhoneRequest checks that a phone number can receive codes.
type ValidatePhoneRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

// SendTestCodeRequest sends a one-off test code to a phone number.
type SendTestCodeRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

// TwoFactorResponse is the common reply of the 2FA endpoints.
type TwoFactorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

// AuthUser is the account returned after a successful verification.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// AuthResponse is returned by a successful code verification.
type AuthResponse struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message,omitempty"`
	Token        string    `json:"token,omitempty"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresIn    int64     `json:"expiresIn,omitempty"`
	User         *AuthUser `json:"user,omitempty"`
}

// TwoFactorAPI is the remote verification service.
type TwoFactorAPI interface {
	Verify(ctx context.Context, req VerifyRequest) (AuthResponse, error)
	Resend(ctx context.Context, req ResendRequest) (TwoFactorResponse, error)
	ValidatePhone(ctx context.Context, req ValidatePhoneRequest) (TwoFactorResponse, error)
	SendTestCode(ctx context.Context, req SendTestCodeRequest) (TwoFactorResponse, error)
}
