// Package twofactor is the REST client for the two-factor verification API.
// Every call is a single POST with no retries and no local state.
package twofactor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/bankdesk/internal/domain"
)

const (
	pathVerify        = "/auth/2fa/verify"
	pathResend        = "/auth/2fa/resend"
	pathValidatePhone = "/auth/2fa/validate-phone"
	pathSendTestCode  = "/auth/2fa/send-test-code"
)

// Client calls the 2FA endpoints of the auth API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new 2FA client for the auth API rooted at baseURL.
// A zero timeout falls back to 30 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// APIError is a non-2xx reply from the auth API. Message is the server's
// "message" field, when it sent one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// ServerMessage returns the server-provided message carried by err, if any.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// Verify submits a verification code.
func (c *Client) Verify(ctx context.Context, req domain.VerifyRequest) (domain.AuthResponse, error) {
	var out domain.AuthResponse
	if err := c.doPost(ctx, pathVerify, req, &out); err != nil {
		return domain.AuthResponse{}, fmt.Errorf("twofactor: verify: %w", err)
	}
	return out, nil
}

// Resend asks the API to send a new code for the session.
func (c *Client) Resend(ctx context.Context, req domain.ResendRequest) (domain.TwoFactorResponse, error) {
	var out domain.TwoFactorResponse
	if err := c.doPost(ctx, pathResend, req, &out); err != nil {
		return domain.TwoFactorResponse{}, fmt.Errorf("twofactor: resend: %w", err)
	}
	return out, nil
}

// ValidatePhone checks whether a phone number can receive codes.
func (c *Client) ValidatePhone(ctx context.Context, req domain.ValidatePhoneRequest) (domain.TwoFactorResponse, error) {
	var out domain.TwoFactorResponse
	if err := c.doPost(ctx, pathValidatePhone, req, &out); err != nil {
		return domain.TwoFactorResponse{}, fmt.Errorf("twofactor: validate phone: %w", err)
	}
	return out, nil
}

// SendTestCode sends a test code to a phone number.
func (c *Client) SendTestCode(ctx context.Context, req domain.SendTestCodeRequest) (domain.TwoFactorResponse, error) {
	var out domain.TwoFactorResponse
	if err := c.doPost(ctx, pathSendTestCode, req, &out); err != nil {
		return domain.TwoFactorResponse{}, fmt.Errorf("twofactor: send test code: %w", err)
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doPost marshals in as the JSON body, sends it, and decodes a 2xx reply
// into out.
func (c *Client) doPost(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: http request: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", domain.ErrTransport, err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", domain.ErrTransport, err)
	}
	return nil
}

// checkHTTPStatus maps non-2xx responses to an APIError marked with
// domain.ErrTransport and, where one applies, a more specific sentinel.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	apiErr := &APIError{StatusCode: statusCode}
	var envelope struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		apiErr.Message = strings.TrimSpace(envelope.Message)
	}

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w: %w", domain.ErrTransport, domain.ErrNotFound, apiErr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w: %w", domain.ErrTransport, domain.ErrUnauthorized, apiErr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w: %w", domain.ErrTransport, domain.ErrRateLimited, apiErr)
	default:
		return fmt.Errorf("%w: %w", domain.ErrTransport, apiErr)
	}
}

// Compile-time interface check.
var _ domain.TwoFactorAPI = (*Client)(nil)
