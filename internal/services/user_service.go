package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"authsvc/internal/models"
	"authsvc/internal/repositories"
	"authsvc/internal/utils"
)

// Signup registers an unverified account, opens a session for it and sends the
// verification code.
func (s *AuthService) Signup(ctx context.Context, email, password, name string) (res *AuthResult, err error) {
	const op = "auth.Signup"
	defer s.observe("signup", &err)

	req := models.SignupRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
		Name:     strings.TrimSpace(name),
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return nil, newError(op, ErrValidation, "All fields are required", nil)
	}
	if vErr := req.Validate(); vErr != nil {
		return nil, newError(op, ErrValidation, vErr.Error(), vErr)
	}
	req.Email = utils.NormalizeEmail(req.Email)

	_, ferr := s.users.FindByEmail(ctx, req.Email)
	switch {
	case ferr == nil:
		return nil, newError(op, ErrConflict, "User already exists", nil)
	case !errors.Is(ferr, repositories.ErrNotFound):
		return nil, s.storeError(op, ferr)
	}

	hash, hErr := s.hasher.HashPassword(req.Password)
	if hErr != nil {
		return nil, newError(op, ErrInternal, "Failed to hash password", hErr)
	}

	now := s.now().UTC()
	id, idErr := utils.NewID(now)
	if idErr != nil {
		return nil, newError(op, ErrInternal, "Failed to allocate user id", idErr)
	}
	user := &models.User{
		ID:           id,
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if iErr := s.insertWithCode(ctx, op, user, now); iErr != nil {
		return nil, iErr
	}

	token, tErr := s.sessions.Issue(user.ID)
	if tErr != nil {
		return nil, newError(op, ErrInternal, "Failed to create session", tErr)
	}

	s.log.InfoContext(ctx, "user signed up", "user_id", user.ID)

	to, code := user.Email, *user.VerificationToken
	if dErr := s.dispatch.Dispatch(ctx, "verification", func(ctx context.Context) error {
		return s.notifier.SendVerification(ctx, to, code)
	}); dErr != nil {
		return nil, s.notifierError(op, "verification", dErr)
	}

	return &AuthResult{User: user.Public(), SessionToken: token}, nil
}

// insertWithCode picks a verification code no other pending signup holds and
// persists the user with it.
func (s *AuthService) insertWithCode(ctx context.Context, op string, user *models.User, now time.Time) error {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := utils.NewNumericCode(verificationCodeDigits)
		if err != nil {
			return newError(op, ErrInternal, "Failed to generate verification code", err)
		}

		_, err = s.users.FindByVerificationToken(ctx, code)
		switch {
		case err == nil:
			continue
		case !errors.Is(err, repositories.ErrNotFound):
			return s.storeError(op, err)
		}

		user.SetVerificationToken(code, now.Add(s.settings.VerificationTTL))
		err = s.users.Insert(ctx, user)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, repositories.ErrDuplicateEmail):
			return newError(op, ErrConflict, "User already exists", nil)
		case errors.Is(err, repositories.ErrDuplicateToken):
			// lost a race for the code
			continue
		default:
			return s.storeError(op, err)
		}
	}
	return newError(op, ErrInternal, "Failed to generate verification code", nil)
}

// VerifyEmail consumes a pending verification code. A code is accepted at most once.
func (s *AuthService) VerifyEmail(ctx context.Context, code string) (user *models.User, err error) {
	const op = "auth.VerifyEmail"
	defer s.observe("verify_email", &err)

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, newError(op, ErrInvalidOrExpiredToken, "Invalid or expired verification code", nil)
	}

	u, cErr := s.users.ConsumeVerificationToken(ctx, code, s.now().UTC())
	switch {
	case errors.Is(cErr, repositories.ErrNotFound):
		return nil, newError(op, ErrInvalidOrExpiredToken, "Invalid or expired verification code", nil)
	case cErr != nil:
		return nil, s.storeError(op, cErr)
	}

	s.log.InfoContext(ctx, "email verified", "user_id", u.ID)

	to, name := u.Email, u.Name
	if dErr := s.dispatch.Dispatch(ctx, "welcome", func(ctx context.Context) error {
		return s.notifier.SendWelcome(ctx, to, name)
	}); dErr != nil {
		return nil, s.notifierError(op, "welcome", dErr)
	}
	return u.Public(), nil
}
