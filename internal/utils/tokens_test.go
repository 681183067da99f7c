package utils

import (
	"encoding/hex"
	"regexp"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHexToken(t *testing.T) {
	tok, err := NewHexToken(20)
	require.NoError(t, err)
	assert.Len(t, tok, 40)

	_, err = hex.DecodeString(tok)
	assert.NoError(t, err)

	other, err := NewHexToken(20)
	require.NoError(t, err)
	assert.NotEqual(t, tok, other)
}

func TestNewHexToken_DefaultLength(t *testing.T) {
	tok, err := NewHexToken(0)
	require.NoError(t, err)
	assert.Len(t, tok, 40)
}

func TestNewNumericCode(t *testing.T) {
	re := regexp.MustCompile(`^[0-9]{6}$`)
	for i := 0; i < 200; i++ {
		code, err := NewNumericCode(6)
		require.NoError(t, err)
		require.Regexp(t, re, code)
	}
}

func TestNewNumericCode_BadLength(t *testing.T) {
	_, err := NewNumericCode(0)
	assert.Error(t, err)

	_, err = NewNumericCode(19)
	assert.Error(t, err)
}

func TestNewID(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	id, err := NewID(now)
	require.NoError(t, err)

	parsed, err := ulid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(now), parsed.Time())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.com "))
	assert.Equal(t, "", NormalizeEmail("   "))
}
