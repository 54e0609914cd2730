package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-event-api/internal/container"
	handlers "github.com/oksasatya/go-event-api/internal/interface/http"
	"github.com/oksasatya/go-event-api/internal/interface/middleware"
)

// AuthModule mounts registration, sign-in and promotion.
// Public: GET /api/auth/check-email, GET /api/auth/code, POST /api/auth/join, POST /api/auth/sign-in
// Protected: PUT /api/auth/promote
type AuthModule struct {
	Handler *handlers.AuthHandler
}

func NewAuthModule(h *handlers.AuthHandler) *AuthModule {
	return &AuthModule{Handler: h}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	cfg := container.GetConfig()

	// every call to these endpoints may send a mail, so limit per IP and path
	ipLimiter := limit(cfg.AuthRateLimit, cfg.AuthRateWindow, middleware.KeyByIPAndPath(), nil)

	auth := rg.Group("/auth")
	auth.GET("/check-email", ipLimiter, m.Handler.CheckEmail)
	auth.GET("/code", ipLimiter, m.Handler.VerifyCode)
	auth.POST("/join", ipLimiter, m.Handler.Join)
	auth.POST("/sign-in", ipLimiter, m.Handler.SignIn)

	auth.PUT("/promote",
		middleware.RequireAuth(),
		limit(10, time.Minute, middleware.KeyByUserID(), nil),
		m.Handler.Promote,
	)
}
