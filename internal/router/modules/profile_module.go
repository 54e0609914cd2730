package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-event-api/internal/domain/entity"
	handlers "github.com/oksasatya/go-event-api/internal/interface/http"
	"github.com/oksasatya/go-event-api/internal/interface/middleware"
)

// ProfileModule mounts the caller's profile and the admin account search.
// Protected: GET /api/profile, POST /api/profile/image
// Admin: GET /api/accounts/search
type ProfileModule struct {
	Handler *handlers.ProfileHandler
}

func NewProfileModule(h *handlers.ProfileHandler) *ProfileModule {
	return &ProfileModule{Handler: h}
}

func (m *ProfileModule) Register(rg *gin.RouterGroup) {
	authed := rg.Group("/")
	authed.Use(
		middleware.RequireAuth(),
		limit(120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		authed.GET("/profile", m.Handler.GetProfile)
		authed.POST("/profile/image", limit(10, time.Minute, middleware.KeyByUserID(), nil), m.Handler.UploadImage)
	}

	admin := rg.Group("/accounts")
	admin.Use(middleware.RequireRole(entity.RoleAdmin))
	admin.GET("/search", m.Handler.SearchAccounts)
}
