package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidSession = errors.New("invalid session token")

// SessionIssuer mints and checks the signed credential carried in the session cookie.
type SessionIssuer interface {
	Issue(userID string) (string, error)
	Verify(token string) (userID string, err error)
	TTL() time.Duration
}

type SessionClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// JWTSessionIssuer signs HS256 tokens with a process-wide secret.
type JWTSessionIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewJWTSessionIssuer(secret string, ttl time.Duration) (*JWTSessionIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session: empty signing secret")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session: non-positive ttl %s", ttl)
	}
	return &JWTSessionIssuer{key: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithClock replaces the time source used for iat/exp and for validation.
func (s *JWTSessionIssuer) WithClock(now func() time.Time) *JWTSessionIssuer {
	s.now = now
	return s
}

func (s *JWTSessionIssuer) TTL() time.Duration { return s.ttl }

func (s *JWTSessionIssuer) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("session: empty user id")
	}
	now := s.now()
	claims := &SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

func (s *JWTSessionIssuer) Verify(tokenStr string) (string, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return "", ErrInvalidSession
	}
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (interface{}, error) {
			// принимаем только HMAC
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return s.key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !token.Valid || claims.UserID == "" {
		return "", ErrInvalidSession
	}
	return claims.UserID, nil
}
