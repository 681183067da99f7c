package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"authsvc/internal/middleware"
	"authsvc/internal/models"
	"authsvc/internal/services"
)

// CredentialService is the part of services.AuthService the HTTP layer drives.
type CredentialService interface {
	Signup(ctx context.Context, email, password, name string) (*services.AuthResult, error)
	VerifyEmail(ctx context.Context, code string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	SessionTTL() time.Duration
}

type AuthHandler struct {
	auth         CredentialService
	secureCookie bool
	log          *slog.Logger
}

// NewAuthHandler; secureCookie marks the session cookie Secure (production).
func NewAuthHandler(auth CredentialService, secureCookie bool, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{auth: auth, secureCookie: secureCookie, log: log}
}

// @Summary      Регистрация
// @Description  Creates an unverified account, opens a session and emails a 6-digit verification code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.SignupRequest  true  "Email, password and name"
// @Success      201   {object}  models.Response
// @Failure      400   {object}  models.Response
// @Failure      500   {object}  models.Response
// @Router       /api/auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.auth.Signup(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	setSessionCookie(c, res.SessionToken, h.auth.SessionTTL(), h.secureCookie)
	c.JSON(http.StatusCreated, models.Response{
		Success: true,
		Message: "User created successfully",
		User:    res.User,
	})
}

// @Summary      Подтверждение email
// @Description  Consumes the verification code sent at signup
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.VerifyEmailRequest  true  "Verification code"
// @Success      200   {object}  models.Response
// @Failure      400   {object}  models.Response
// @Failure      500   {object}  models.Response
// @Router       /api/auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req models.VerifyEmailRequest
	if !h.bind(c, &req) {
		return
	}
	user, err := h.auth.VerifyEmail(c.Request.Context(), req.Code)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Email verified successfully",
		User:    user,
	})
}

// @Summary      Вход в систему
// @Description  Checks the credentials and sets the session cookie
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.LoginRequest  true  "Email and password"
// @Success      200   {object}  models.Response
// @Failure      400   {object}  models.Response
// @Failure      403   {object}  models.Response
// @Failure      500   {object}  models.Response
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	setSessionCookie(c, res.SessionToken, h.auth.SessionTTL(), h.secureCookie)
	c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Logged in successfully",
		User:    res.User,
	})
}

// @Summary      Выход
// @Description  Clears the session cookie. Always succeeds.
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  models.Response
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	clearSessionCookie(c, h.secureCookie)
	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Logged out successfully"})
}

// @Summary      Запрос сброса пароля
// @Description  Emails a single-use reset link valid for one hour
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.ForgotPasswordRequest  true  "Account email"
// @Success      200   {object}  models.Response
// @Failure      400   {object}  models.Response
// @Failure      404   {object}  models.Response
// @Failure      500   {object}  models.Response
// @Router       /api/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Password reset link sent to your email"})
}

// @Summary      Сброс пароля
// @Description  Sets a new password using the token from the reset link
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        token  path      string                       true  "Reset token"
// @Param        body   body      models.ResetPasswordRequest  true  "New password"
// @Success      200    {object}  models.Response
// @Failure      400    {object}  models.Response
// @Failure      500    {object}  models.Response
// @Router       /api/auth/reset-password/{token} [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Password reset successful"})
}

// @Summary      Текущий пользователь
// @Description  Returns the user behind the session cookie
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  models.Response
// @Failure      401  {object}  models.Response
// @Failure      404  {object}  models.Response
// @Router       /api/auth/check-auth [get]
func (h *AuthHandler) CheckAuth(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		h.fail(c, &services.Error{Op: "http.CheckAuth", Kind: services.ErrUnauthorized, Msg: "Unauthorized - no token provided"})
		return
	}
	c.JSON(http.StatusOK, models.Response{Success: true, User: user})
}
