package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"authsvc/internal/metrics"
	"authsvc/internal/models"
	"authsvc/internal/repositories"
	"authsvc/internal/utils"
)

const (
	verificationCodeDigits = 6
	maxCodeAttempts        = 5
	resetTokenBytes        = 20

	defaultVerificationTTL = 24 * time.Hour
	defaultResetTTL        = time.Hour
	defaultSendTimeout     = 30 * time.Second
)

// AuthSettings are the knobs of the credential flows.
type AuthSettings struct {
	VerificationTTL time.Duration
	ResetTTL        time.Duration
	// ClientURL is the frontend origin the reset link points at.
	ClientURL string
	// RequireVerifiedLogin rejects logins of accounts that never confirmed their email.
	RequireVerifiedLogin bool
}

// AuthResult is returned by the operations that open a session.
type AuthResult struct {
	User         *models.User
	SessionToken string
}

// AuthService owns signup, verification, login, password reset and session checks.
type AuthService struct {
	users    repositories.UserRepository
	hasher   PasswordHasher
	sessions SessionIssuer
	notifier Notifier
	dispatch *NotificationDispatcher
	settings AuthSettings
	log      *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

type Option func(*AuthService)

func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *AuthService) {
		if log != nil {
			s.log = log
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *AuthService) { s.metrics = m }
}

func WithDispatcher(d *NotificationDispatcher) Option {
	return func(s *AuthService) { s.dispatch = d }
}

func NewAuthService(
	users repositories.UserRepository,
	hasher PasswordHasher,
	sessions SessionIssuer,
	notifier Notifier,
	settings AuthSettings,
	opts ...Option,
) (*AuthService, error) {
	switch {
	case users == nil:
		return nil, errors.New("auth service: user repository is required")
	case hasher == nil:
		return nil, errors.New("auth service: password hasher is required")
	case sessions == nil:
		return nil, errors.New("auth service: session issuer is required")
	case notifier == nil:
		return nil, errors.New("auth service: notifier is required")
	}
	if settings.VerificationTTL <= 0 {
		settings.VerificationTTL = defaultVerificationTTL
	}
	if settings.ResetTTL <= 0 {
		settings.ResetTTL = defaultResetTTL
	}

	s := &AuthService{
		users:    users,
		hasher:   hasher,
		sessions: sessions,
		notifier: notifier,
		settings: settings,
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dispatch == nil {
		s.dispatch = NewNotificationDispatcher(false, defaultSendTimeout, s.log, s.metrics)
	}
	return s, nil
}

// SessionTTL is the lifetime of the credential returned by Signup and Login.
func (s *AuthService) SessionTTL() time.Duration { return s.sessions.TTL() }

// Login checks the credentials and opens a new session. Unknown email and wrong
// password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (res *AuthResult, err error) {
	const op = "auth.Login"
	defer s.observe("login", &err)

	req := models.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if vErr := req.Validate(); vErr != nil {
		return nil, newError(op, ErrValidation, "All fields are required", vErr)
	}

	user, ferr := s.users.FindByEmail(ctx, utils.NormalizeEmail(req.Email))
	switch {
	case errors.Is(ferr, repositories.ErrNotFound):
		// burn the same bcrypt work as a real comparison
		_, _ = s.hasher.ComparePassword(password, s.placeholderHash())
		return nil, s.invalidCredentials(op)
	case ferr != nil:
		return nil, s.storeError(op, ferr)
	}

	ok, cErr := s.hasher.ComparePassword(password, user.PasswordHash)
	if cErr != nil {
		s.log.ErrorContext(ctx, "stored password hash is unusable", "user_id", user.ID, "err", cErr)
		return nil, s.invalidCredentials(op)
	}
	if !ok {
		return nil, s.invalidCredentials(op)
	}
	if s.settings.RequireVerifiedLogin && !user.IsVerified {
		return nil, newError(op, ErrEmailNotVerified, "Email not verified", nil)
	}

	token, iErr := s.sessions.Issue(user.ID)
	if iErr != nil {
		return nil, newError(op, ErrInternal, "Failed to create session", iErr)
	}

	now := s.now().UTC()
	if uErr := s.users.RecordLogin(ctx, user.ID, now); uErr != nil {
		return nil, s.storeError(op, uErr)
	}
	user.LastLoginAt = &now
	user.UpdatedAt = now

	s.log.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return &AuthResult{User: user.Public(), SessionToken: token}, nil
}

// CheckAuth resolves a session credential to its user. It has no side effects.
func (s *AuthService) CheckAuth(ctx context.Context, token string) (user *models.User, err error) {
	const op = "auth.CheckAuth"
	defer s.observe("check_auth", &err)

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, newError(op, ErrUnauthorized, "Unauthorized - no token provided", nil)
	}
	userID, vErr := s.sessions.Verify(token)
	if vErr != nil {
		return nil, newError(op, ErrUnauthorized, "Unauthorized - invalid token", vErr)
	}

	u, ferr := s.users.FindByID(ctx, userID)
	switch {
	case errors.Is(ferr, repositories.ErrNotFound):
		return nil, newError(op, ErrNotFound, "User not found", nil)
	case ferr != nil:
		return nil, s.storeError(op, ferr)
	}
	return u.Public(), nil
}

// Wait drains best-effort notifications still in flight.
func (s *AuthService) Wait() { s.dispatch.Wait() }

func (s *AuthService) invalidCredentials(op string) error {
	return newError(op, ErrInvalidCredentials, "Invalid credentials", nil)
}

func (s *AuthService) storeError(op string, err error) error {
	return newError(op, ErrStore, err.Error(), err)
}

func (s *AuthService) notifierError(op, what string, err error) error {
	return newError(op, ErrNotifier, "Error sending "+what+" email: "+err.Error(), err)
}

func (s *AuthService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.HashPassword("placeholder-password-for-timing")
		if err != nil {
			s.log.Error("failed to prepare placeholder hash", "err", err)
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func (s *AuthService) observe(op string, err *error) {
	s.metrics.ObserveOperation(op, outcome(*err))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrInvalidOrExpiredToken):
		return "invalid_token"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrEmailNotVerified):
		return "email_not_verified"
	case errors.Is(err, ErrNotifier):
		return "notifier"
	case errors.Is(err, ErrStore):
		return "store"
	default:
		return "internal"
	}
}
