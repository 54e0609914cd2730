package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-event-api/internal/application"
	"github.com/oksasatya/go-event-api/internal/interface/middleware"
	"github.com/oksasatya/go-event-api/pkg/response"
	"github.com/oksasatya/go-event-api/pkg/validation"
)

// Registrar is the registration state machine as seen by HTTP.
type Registrar interface {
	RequestRegistration(ctx context.Context, email string) (bool, error)
	SubmitCode(ctx context.Context, email, code string) (bool, error)
	FinalizeRegistration(ctx context.Context, email, password string) error
}

// Authenticator logs accounts in and promotes them.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*application.LoginResult, error)
	Promote(ctx context.Context, accountID string) (*application.LoginResult, error)
}

type AuthHandler struct {
	Registration Registrar
	Auth         Authenticator
	Logger       *logrus.Logger
}

func NewAuthHandler(reg Registrar, auth Authenticator, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Registration: reg, Auth: auth, Logger: logger}
}

type emailQuery struct {
	Email string `form:"email" binding:"required,email"`
}

type codeQuery struct {
	Email string `form:"email" binding:"required,email"`
	Code  string `form:"code" binding:"required,vcode"`
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type sessionResponse struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

func toSession(r *application.LoginResult) sessionResponse {
	return sessionResponse{Email: r.Email, Role: r.Role.String(), Token: r.Token}
}

// CheckEmail GET /api/auth/check-email?email=
// Starts (or restarts) registration; data is true when the email is already fully registered.
func (h *AuthHandler) CheckEmail(c *gin.Context) {
	var q emailQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	dup, err := h.Registration.RequestRegistration(c.Request.Context(), q.Email)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	msg := "verification code sent"
	if dup {
		msg = "email already registered"
	}
	// pointer so that false survives the omitempty on data
	response.Success(c, http.StatusOK, &dup, msg, nil)
}

// VerifyCode GET /api/auth/code?email=&code=
// A wrong or expired code triggers a new mail; data reports the match.
func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var q codeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	ok, err := h.Registration.SubmitCode(c.Request.Context(), q.Email, q.Code)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	msg := "email verified"
	if !ok {
		msg = "code mismatch, a new code was sent"
	}
	response.Success(c, http.StatusOK, &ok, msg, nil)
}

// Join POST /api/auth/join {email, password}
func (h *AuthHandler) Join(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	err := h.Registration.FinalizeRegistration(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, application.ErrAccountNotFound) {
		response.Error[any](c, http.StatusBadRequest, "unknown email, request a verification code first", nil)
		return
	}
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"email": req.Email}, "registration complete", nil)
}

// SignIn POST /api/auth/sign-in {email, password}
// Rejected credentials answer 422 with the reason as message.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toSession(res), "login successful", gin.H{"expires_at": res.ExpiresAt})
}

// Promote PUT /api/auth/promote (auth required)
func (h *AuthHandler) Promote(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	if p == nil {
		response.Error[any](c, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	res, err := h.Auth.Promote(c.Request.Context(), p.AccountID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toSession(res), "account promoted", gin.H{"expires_at": res.ExpiresAt})
}
