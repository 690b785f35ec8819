package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/bankdesk/internal/domain"
	"github.com/alanyoungcy/bankdesk/internal/platform/twofactor"
)

type fakeTwoFactor struct {
	err   error
	calls int
}

func (f *fakeTwoFactor) Verify(_ context.Context, req domain.VerifyRequest) (domain.AuthResponse, error) {
	f.calls++
	if f.err != nil {
		return domain.AuthResponse{}, f.err
	}
	return domain.AuthResponse{Success: true, Token: "tok-" + req.SessionID}, nil
}

func (f *fakeTwoFactor) Resend(_ context.Context, req domain.ResendRequest) (domain.TwoFactorResponse, error) {
	f.calls++
	if f.err != nil {
		return domain.TwoFactorResponse{}, f.err
	}
	return domain.TwoFactorResponse{Success: true, SessionID: req.SessionID}, nil
}

func (f *fakeTwoFactor) ValidatePhone(_ context.Context, _ domain.ValidatePhoneRequest) (domain.TwoFactorResponse, error) {
	f.calls++
	if f.err != nil {
		return domain.TwoFactorResponse{}, f.err
	}
	return domain.TwoFactorResponse{Success: true}, nil
}

func (f *fakeTwoFactor) SendTestCode(_ context.Context, _ domain.SendTestCodeRequest) (domain.TwoFactorResponse, error) {
	f.calls++
	if f.err != nil {
		return domain.TwoFactorResponse{}, f.err
	}
	return domain.TwoFactorResponse{Success: true, Message: "sent"}, nil
}

func TestAuthService_Success(t *testing.T) {
	api := &fakeTwoFactor{}
	svc := NewAuthService(api, nil, discardLogger())
	ctx := context.Background()

	resp, err := svc.Verify(ctx, domain.VerifyRequest{SessionID: "s1", Code: "123456"})
	require.NoError(t, err)
	assert.Equal(t, "tok-s1", resp.Token)

	r, err := svc.Resend(ctx, domain.ResendRequest{SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "s1", r.SessionID)

	_, err = svc.ValidatePhone(ctx, domain.ValidatePhoneRequest{PhoneNumber: "+41790000000"})
	require.NoError(t, err)

	r, err = svc.SendTestCode(ctx, domain.SendTestCodeRequest{PhoneNumber: "+41790000000"})
	require.NoError(t, err)
	assert.Equal(t, "sent", r.Message)

	assert.Equal(t, 4, api.calls)
}

func TestAuthService_DefaultMessages(t *testing.T) {
	transport := fmt.Errorf("twofactor: post: %w", domain.ErrTransport)
	alerts := &recordingAlerter{}
	svc := NewAuthService(&fakeTwoFactor{err: transport}, alerts, discardLogger())
	ctx := context.Background()

	_, err := svc.Verify(ctx, domain.VerifyRequest{})
	assert.Equal(t, MsgVerifyFailed, domain.UserMessage(err, ""))
	assert.ErrorIs(t, err, domain.ErrTransport)

	_, err = svc.Resend(ctx, domain.ResendRequest{})
	assert.Equal(t, MsgResendFailed, domain.UserMessage(err, ""))

	_, err = svc.ValidatePhone(ctx, domain.ValidatePhoneRequest{})
	assert.Equal(t, MsgValidatePhoneFailed, domain.UserMessage(err, ""))

	_, err = svc.SendTestCode(ctx, domain.SendTestCodeRequest{})
	assert.Equal(t, MsgSendTestCodeFailed, domain.UserMessage(err, ""))

	svc.alerts.wait()
	assert.Len(t, alerts.events, 4)
	assert.Equal(t, "twofactor_failed", alerts.events[0])
}

type blockingAlerter struct {
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingAlerter) Notify(ctx context.Context, _, _, _ string) error {
	b.calls.Add(1)
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestAuthService_AlertDoesNotDelayCaller(t *testing.T) {
	alerts := &blockingAlerter{release: make(chan struct{})}
	svc := NewAuthService(&fakeTwoFactor{err: domain.ErrTransport}, alerts, discardLogger())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Verify(context.Background(), domain.VerifyRequest{})
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, domain.ErrTransport)
	case <-time.After(2 * time.Second):
		t.Fatal("Verify waited on alert delivery")
	}

	close(alerts.release)
	svc.alerts.wait()
	assert.EqualValues(t, 1, alerts.calls.Load())
}

func TestAuthService_CancelledCallerRaisesNoAlert(t *testing.T) {
	alerts := &recordingAlerter{}
	svc := NewAuthService(&fakeTwoFactor{err: fmt.Errorf("twofactor: post: %w", context.Canceled)}, alerts, discardLogger())

	_, err := svc.Resend(context.Background(), domain.ResendRequest{})
	require.Error(t, err)

	svc.alerts.wait()
	assert.Empty(t, alerts.events)
}

func TestAuthService_ServerMessageWins(t *testing.T) {
	apiErr := fmt.Errorf("%w: %w", domain.ErrTransport, &twofactor.APIError{StatusCode: 400, Message: "Invalid code"})
	svc := NewAuthService(&fakeTwoFactor{err: apiErr}, nil, discardLogger())

	_, err := svc.Verify(context.Background(), domain.VerifyRequest{SessionID: "s1", Code: "000000"})
	require.Error(t, err)
	assert.Equal(t, "Invalid code", domain.UserMessage(err, ""))

	var got *twofactor.APIError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, 400, got.StatusCode)
}
