package services

import (
	"context"
	"errors"
	"strings"

	"authsvc/internal/models"
	"authsvc/internal/repositories"
	"authsvc/internal/utils"
)

// ForgotPassword stores a fresh reset token for the account and mails the reset link.
// A newer request replaces any earlier token.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (err error) {
	const op = "auth.ForgotPassword"
	defer s.observe("forgot_password", &err)

	req := models.ForgotPasswordRequest{Email: strings.TrimSpace(email)}
	if vErr := req.Validate(); vErr != nil {
		return newError(op, ErrValidation, "Email is required", vErr)
	}

	user, ferr := s.users.FindByEmail(ctx, utils.NormalizeEmail(req.Email))
	switch {
	case errors.Is(ferr, repositories.ErrNotFound):
		return newError(op, ErrNotFound, "User not found", nil)
	case ferr != nil:
		return s.storeError(op, ferr)
	}

	token, tErr := utils.NewHexToken(resetTokenBytes)
	if tErr != nil {
		return newError(op, ErrInternal, "Failed to generate reset token", tErr)
	}
	now := s.now().UTC()
	if uErr := s.users.SetResetToken(ctx, user.ID, token, now.Add(s.settings.ResetTTL), now); uErr != nil {
		if errors.Is(uErr, repositories.ErrNotFound) {
			return newError(op, ErrNotFound, "User not found", nil)
		}
		return s.storeError(op, uErr)
	}

	s.log.InfoContext(ctx, "password reset requested", "user_id", user.ID)

	to, link := user.Email, s.resetURL(token)
	if dErr := s.dispatch.Dispatch(ctx, "password_reset_request", func(ctx context.Context) error {
		return s.notifier.SendPasswordResetRequest(ctx, to, link)
	}); dErr != nil {
		return s.notifierError(op, "password reset", dErr)
	}
	return nil
}

// ResetPassword replaces the password of the account holding token. The token is
// consumed in the same write, so a second use fails.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) (err error) {
	const op = "auth.ResetPassword"
	defer s.observe("reset_password", &err)

	token = strings.TrimSpace(token)
	if token == "" {
		return newError(op, ErrInvalidOrExpiredToken, "Invalid or expired reset token", nil)
	}
	req := models.ResetPasswordRequest{Password: password}
	if vErr := req.Validate(); vErr != nil {
		return newError(op, ErrValidation, "Password is required", vErr)
	}

	now := s.now().UTC()
	user, ferr := s.users.FindByResetToken(ctx, token)
	switch {
	case errors.Is(ferr, repositories.ErrNotFound):
		return newError(op, ErrInvalidOrExpiredToken, "Invalid or expired reset token", nil)
	case ferr != nil:
		return s.storeError(op, ferr)
	}
	// отсекаем просроченные до bcrypt
	if !user.HasValidResetToken(token, now) {
		return newError(op, ErrInvalidOrExpiredToken, "Invalid or expired reset token", nil)
	}

	hash, hErr := s.hasher.HashPassword(password)
	if hErr != nil {
		return newError(op, ErrInternal, "Failed to hash password", hErr)
	}
	updated, cErr := s.users.ConsumeResetToken(ctx, token, hash, now)
	switch {
	case errors.Is(cErr, repositories.ErrNotFound):
		return newError(op, ErrInvalidOrExpiredToken, "Invalid or expired reset token", nil)
	case cErr != nil:
		return s.storeError(op, cErr)
	}

	s.log.InfoContext(ctx, "password reset", "user_id", updated.ID)

	to := updated.Email
	if dErr := s.dispatch.Dispatch(ctx, "password_reset_success", func(ctx context.Context) error {
		return s.notifier.SendPasswordResetSuccess(ctx, to)
	}); dErr != nil {
		return s.notifierError(op, "password reset success", dErr)
	}
	return nil
}

func (s *AuthService) resetURL(token string) string {
	return strings.TrimRight(s.settings.ClientURL, "/") + "/reset-password/" + token
}
