package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"

	"authsvc/internal/models"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrDuplicateToken = errors.New("token already in use")
)

// UserRepository persists user records. Lookups return ErrNotFound when nothing matches.
// Insert enforces email uniqueness (case-insensitive) and reports ErrDuplicateEmail.
type UserRepository interface {
	Insert(ctx context.Context, user *models.User) error
	// RecordLogin stamps last_login_at; it touches no other column.
	RecordLogin(ctx context.Context, id string, at time.Time) error
	// SetResetToken replaces any pending reset token of the user.
	SetResetToken(ctx context.Context, id, token string, expiresAt, now time.Time) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByVerificationToken(ctx context.Context, code string) (*models.User, error)
	FindByResetToken(ctx context.Context, token string) (*models.User, error)

	// ConsumeVerificationToken marks the owner of an unexpired code verified and clears
	// the code in one conditional update.
	ConsumeVerificationToken(ctx context.Context, code string, now time.Time) (*models.User, error)
	// ConsumeResetToken swaps in passwordHash and clears an unexpired reset token in one
	// conditional update.
	ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*models.User, error)

	Ping(ctx context.Context) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `
	id, email, name, password_hash, is_verified,
	verification_token, verification_token_expires_at,
	reset_password_token, reset_password_expires_at,
	last_login_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var (
		vt  sql.NullString
		vte sql.NullTime
		rt  sql.NullString
		rte sql.NullTime
		ll  sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsVerified,
		&vt, &vte,
		&rt, &rte,
		&ll, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if vt.Valid && vte.Valid {
		u.SetVerificationToken(vt.String, vte.Time)
	}
	if rt.Valid && rte.Valid {
		u.SetResetPasswordToken(rt.String, rte.Time)
	}
	if ll.Valid {
		t := ll.Time
		u.LastLoginAt = &t
	}
	return u, nil
}

func (r *userRepository) Insert(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (
			id, email, name, password_hash, is_verified,
			verification_token, verification_token_expires_at,
			reset_password_token, reset_password_expires_at,
			last_login_at, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`
	_, err := r.DB.ExecContext(ctx, q,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.IsVerified,
		nullString(user.VerificationToken),
		nullTime(user.VerificationTokenExpiresAt),
		nullString(user.ResetPasswordToken),
		nullTime(user.ResetPasswordExpiresAt),
		nullTime(user.LastLoginAt),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *userRepository) RecordLogin(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE users SET last_login_at = $1, updated_at = $1 WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, q, at, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *userRepository) SetResetToken(ctx context.Context, id, token string, expiresAt, now time.Time) error {
	const q = `
		UPDATE users
		SET reset_password_token = $1,
			reset_password_expires_at = $2,
			updated_at = $3
		WHERE id = $4
	`
	res, err := r.DB.ExecContext(ctx, q, token, expiresAt, now, id)
	if err != nil {
		return mapWriteError(err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	q := `SELECT` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.DB.QueryRowContext(ctx, q, id))
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	q := `SELECT` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(r.DB.QueryRowContext(ctx, q, strings.TrimSpace(email)))
}

func (r *userRepository) FindByVerificationToken(ctx context.Context, code string) (*models.User, error) {
	q := `SELECT` + userColumns + ` FROM users WHERE verification_token = $1`
	return scanUser(r.DB.QueryRowContext(ctx, q, code))
}

func (r *userRepository) FindByResetToken(ctx context.Context, token string) (*models.User, error) {
	q := `SELECT` + userColumns + ` FROM users WHERE reset_password_token = $1`
	return scanUser(r.DB.QueryRowContext(ctx, q, token))
}

func (r *userRepository) ConsumeVerificationToken(ctx context.Context, code string, now time.Time) (*models.User, error) {
	q := `
		UPDATE users
		SET is_verified = TRUE,
			verification_token = NULL,
			verification_token_expires_at = NULL,
			updated_at = $2
		WHERE verification_token = $1
		  AND verification_token_expires_at > $2
		RETURNING` + userColumns
	return scanUser(r.DB.QueryRowContext(ctx, q, code, now))
}

func (r *userRepository) ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*models.User, error) {
	q := `
		UPDATE users
		SET password_hash = $2,
			reset_password_token = NULL,
			reset_password_expires_at = NULL,
			updated_at = $3
		WHERE reset_password_token = $1
		  AND reset_password_expires_at > $3
		RETURNING` + userColumns
	return scanUser(r.DB.QueryRowContext(ctx, q, token, passwordHash, now))
}

func (r *userRepository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

func mapWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgerrcode.UniqueViolation {
		if strings.Contains(pqErr.Constraint, "email") {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, pqErr.Constraint)
		}
		return fmt.Errorf("%w: %s", ErrDuplicateToken, pqErr.Constraint)
	}
	return fmt.Errorf("db error: %w", err)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
