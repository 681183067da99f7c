package repositories

import (
	"context"
	"sync"
	"time"

	"authsvc/internal/models"
	"authsvc/internal/utils"
)

// MemoryUserRepository keeps users in process memory. It is used when no database
// is configured and by tests. All methods are safe for concurrent use.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryUserRepository) Insert(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := utils.NormalizeEmail(user.Email)
	if _, ok := r.byEmail[key]; ok {
		return ErrDuplicateEmail
	}
	if _, ok := r.byID[user.ID]; ok {
		return ErrDuplicateToken
	}
	if user.VerificationToken != nil && r.tokenTakenLocked(*user.VerificationToken, user.ID) {
		return ErrDuplicateToken
	}
	r.byID[user.ID] = user.Clone()
	r.byEmail[key] = user.ID
	return nil
}

func (r *MemoryUserRepository) RecordLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	t := at
	u.LastLoginAt = &t
	u.UpdatedAt = at
	return nil
}

func (r *MemoryUserRepository) SetResetToken(_ context.Context, id, token string, expiresAt, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	for otherID, other := range r.byID {
		if otherID != id && other.ResetPasswordToken != nil && *other.ResetPasswordToken == token {
			return ErrDuplicateToken
		}
	}
	u.SetResetPasswordToken(token, expiresAt)
	u.UpdatedAt = now
	return nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[utils.NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *MemoryUserRepository) FindByVerificationToken(_ context.Context, code string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.VerificationToken != nil && *u.VerificationToken == code {
			return u.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) FindByResetToken(_ context.Context, token string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.ResetPasswordToken != nil && *u.ResetPasswordToken == token {
			return u.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) ConsumeVerificationToken(_ context.Context, code string, now time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byID {
		if u.HasValidVerificationToken(code, now) {
			u.IsVerified = true
			u.ClearVerificationToken()
			u.UpdatedAt = now
			return u.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) ConsumeResetToken(_ context.Context, token, passwordHash string, now time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byID {
		if u.HasValidResetToken(token, now) {
			u.PasswordHash = passwordHash
			u.ClearResetPasswordToken()
			u.UpdatedAt = now
			return u.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) Ping(context.Context) error { return nil }

// Delete removes a user. Only tests call it.
func (r *MemoryUserRepository) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.byID[id]; ok {
		delete(r.byEmail, utils.NormalizeEmail(u.Email))
		delete(r.byID, id)
	}
}

func (r *MemoryUserRepository) tokenTakenLocked(code, ownerID string) bool {
	for id, u := range r.byID {
		if id != ownerID && u.VerificationToken != nil && *u.VerificationToken == code {
			return true
		}
	}
	return false
}
