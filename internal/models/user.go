package models

import "time"

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"` // не отдаём наружу
	IsVerified   bool   `json:"isVerified"`

	// pending signup; token and expiry are set and cleared together
	VerificationToken          *string    `json:"-"`
	VerificationTokenExpiresAt *time.Time `json:"-"`

	// pending password reset
	ResetPasswordToken     *string    `json:"-"`
	ResetPasswordExpiresAt *time.Time `json:"-"`

	LastLoginAt *time.Time `json:"lastLogin,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Clone returns a deep copy so callers never share token pointers.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.VerificationToken = cloneString(u.VerificationToken)
	cp.VerificationTokenExpiresAt = cloneTime(u.VerificationTokenExpiresAt)
	cp.ResetPasswordToken = cloneString(u.ResetPasswordToken)
	cp.ResetPasswordExpiresAt = cloneTime(u.ResetPasswordExpiresAt)
	cp.LastLoginAt = cloneTime(u.LastLoginAt)
	return &cp
}

// Public returns a copy safe to hand to a response writer: no hash, no tokens.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	cp := u.Clone()
	cp.PasswordHash = ""
	cp.VerificationToken = nil
	cp.VerificationTokenExpiresAt = nil
	cp.ResetPasswordToken = nil
	cp.ResetPasswordExpiresAt = nil
	return cp
}

func (u *User) SetVerificationToken(token string, expiresAt time.Time) {
	u.VerificationToken = &token
	u.VerificationTokenExpiresAt = &expiresAt
}

func (u *User) ClearVerificationToken() {
	u.VerificationToken = nil
	u.VerificationTokenExpiresAt = nil
}

func (u *User) SetResetPasswordToken(token string, expiresAt time.Time) {
	u.ResetPasswordToken = &token
	u.ResetPasswordExpiresAt = &expiresAt
}

func (u *User) ClearResetPasswordToken() {
	u.ResetPasswordToken = nil
	u.ResetPasswordExpiresAt = nil
}

// HasValidVerificationToken reports whether code matches an unexpired pending signup.
func (u *User) HasValidVerificationToken(code string, now time.Time) bool {
	return u.VerificationToken != nil && u.VerificationTokenExpiresAt != nil &&
		*u.VerificationToken == code && u.VerificationTokenExpiresAt.After(now)
}

// HasValidResetToken reports whether token matches an unexpired reset request.
func (u *User) HasValidResetToken(token string, now time.Time) bool {
	return u.ResetPasswordToken != nil && u.ResetPasswordExpiresAt != nil &&
		*u.ResetPasswordToken == token && u.ResetPasswordExpiresAt.After(now)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
