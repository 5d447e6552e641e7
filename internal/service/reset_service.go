package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yourorg/campusbus/internal/domain"
	"github.com/yourorg/campusbus/internal/notifier"
	"github.com/yourorg/campusbus/internal/observability/metrics"
)

// ResetResult is the uniform response for a reset-code request. Success stays
// true even when no account matches the email, so the endpoint cannot be used
// to probe which addresses are registered.
type ResetResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PasswordResetService drives the request-code / redeem-code flow for
// forgotten passwords. Admin accounts are excluded; their credentials are
// managed out of band.
type PasswordResetService struct {
	users    *UserService
	otp      *OTPStore
	notifier notifier.Notifier
	logger   *slog.Logger
}

// NewPasswordResetService creates the reset service.
func NewPasswordResetService(users *UserService, otp *OTPStore, n notifier.Notifier, logger *slog.Logger) *PasswordResetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PasswordResetService{
		users:    users,
		otp:      otp,
		notifier: n,
		logger:   logger,
	}
}

// RequestPasswordReset issues a reset code to the account's email. The
// response is identical whether or not the email is registered; only throttle
// violations are surfaced, since those only occur for addresses the caller
// already proved control of.
func (s *PasswordResetService) RequestPasswordReset(ctx context.Context, email string) ResetResult {
	neutral := ResetResult{Success: true, Message: "If the email is registered, a reset code has been sent."}

	account, ok := s.users.FindByIdentifier(ctx, email)
	if !ok {
		metrics.ObserveOTPRequest("unknown_email")
		return neutral
	}
	if account.Role == domain.RoleAdmin {
		metrics.ObserveOTPRequest("admin_excluded")
		s.logger.Warn("password reset requested for admin account", slog.String("email", account.Email))
		return neutral
	}

	if !s.otp.CanRequest(account.Email) {
		metrics.ObserveOTPRequest("throttled")
		return ResetResult{Success: false, Message: "A reset code was sent recently. Wait for it to expire before requesting another."}
	}

	code, err := s.otp.Generate()
	if err != nil {
		metrics.ObserveOTPRequest("generate_failed")
		s.logger.Error("failed to generate reset code", slog.String("error", err.Error()))
		return ResetResult{Success: false, Message: "Could not issue a reset code. Try again shortly."}
	}

	record := s.otp.Store(code, account.Email)
	message := fmt.Sprintf(
		"Hello %s,\n\nYour password reset code is %s. It expires at %s and can be used once.\n\nIf you did not request this, ignore this message.",
		account.Name, code, record.ExpiresAt.Format("15:04"),
	)
	if err := s.notifier.Notify(account.Email, "Password reset code", message); err != nil {
		metrics.ObserveOTPRequest("notify_failed")
		s.logger.Error("failed to deliver reset code",
			slog.String("email", account.Email),
			slog.String("error", err.Error()),
		)
		return ResetResult{Success: false, Message: "Could not deliver the reset code. Try again shortly."}
	}

	metrics.ObserveOTPRequest("sent")
	s.logger.Info("reset code issued", slog.String("email", account.Email))
	return neutral
}

// ResetPasswordWithOTP validates the code and rewrites the account credential
// in both stores. The code is consumed only after the write succeeds, so a
// failed write leaves it redeemable.
func (s *PasswordResetService) ResetPasswordWithOTP(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < 8 {
		return domain.ValidationError{Field: "newPassword", Msg: "must be at least 8 characters"}
	}
	if err := s.otp.Validate(code, email); err != nil {
		return err
	}

	if _, err := s.users.ResetPassword(ctx, email, newPassword); err != nil {
		return err
	}
	s.otp.MarkUsed(code)

	s.users.activities.Log(ctx, "password_reset", "password reset via emailed code", email, nil)
	s.logger.Info("password reset completed", slog.String("email", email))
	return nil
}
