package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authsvc/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            0,
			Env:             "test",
			ClientURL:       "http://localhost:5173",
			ShutdownTimeout: time.Second,
		},
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret",
			SessionTTL:      time.Hour,
			BcryptCost:      4,
			VerificationTTL: 24 * time.Hour,
			ResetTTL:        time.Hour,
		},
		Email: config.EmailConfig{DryRun: true, SendTimeout: time.Second},
		Log:   config.LogConfig{Level: "error"},
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_InMemoryWiring(t *testing.T) {
	a, err := New(context.Background(), testConfig(), discard())
	require.NoError(t, err)
	defer a.Close()

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		bytes.NewBufferString(`{"email":"a@x.com","password":"pw1","name":"A"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://localhost:5173")
	w = httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	a.auth.Wait()
}

func TestNew_RejectsBadSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = ""
	_, err := New(context.Background(), cfg, discard())
	assert.Error(t, err)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	a, err := New(context.Background(), testConfig(), discard())
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	assert.NoError(t, a.Run(ctx))
}

func TestPingDB_RetriesUntilReady(t *testing.T) {
	pingBackoffBase = time.Millisecond
	t.Cleanup(func() { pingBackoffBase = 500 * time.Millisecond })

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("the database system is starting up"))
	mock.ExpectPing().WillReturnError(errors.New("the database system is starting up"))
	mock.ExpectPing()

	require.NoError(t, pingDB(context.Background(), db, time.Second, discard()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPingDB_GivesUp(t *testing.T) {
	pingBackoffBase = time.Millisecond
	t.Cleanup(func() { pingBackoffBase = 500 * time.Millisecond })

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	for i := 0; i < 1000; i++ {
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	}

	err = pingDB(context.Background(), db, 50*time.Millisecond, discard())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "ping database"))
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("warn", &buf)
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
	assert.Equal(t, slog.LevelDebug, parseLevel(" DEBUG "))
}
