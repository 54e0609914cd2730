package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-event-api/internal/domain/entity"
	"github.com/oksasatya/go-event-api/internal/metrics"
	"github.com/oksasatya/go-event-api/pkg/helpers"
	"github.com/oksasatya/go-event-api/pkg/response"
)

const (
	CtxPrincipalKey = "principal"
	CtxUserIDKey    = "userID"

	bearerPrefix = "Bearer "
)

// TokenValidator is implemented by helpers.JWTManager.
type TokenValidator interface {
	Validate(token string) (*helpers.Claims, error)
}

// Authenticate attaches the bearer token's principal to the context when the
// token is valid. It never rejects a request: a missing, malformed, expired or
// foreign token just leaves the request anonymous for RequireAuth/RequireRole.
func Authenticate(tokens TokenValidator, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.Next()
			return
		}

		claims, err := tokens.Validate(header[len(bearerPrefix):])
		if err != nil {
			metrics.TokenValidations.WithLabelValues(metrics.OutcomeInvalid).Inc()
			logger.WithError(err).WithField("request_id", c.GetString(CtxRequestIDKey)).Debug("bearer token ignored")
			c.Next()
			return
		}
		role, err := entity.ParseRole(claims.Role)
		if err != nil {
			metrics.TokenValidations.WithLabelValues(metrics.OutcomeInvalid).Inc()
			logger.WithError(err).WithField("subject", claims.Subject).Debug("bearer token carries unknown role")
			c.Next()
			return
		}

		metrics.TokenValidations.WithLabelValues(metrics.OutcomeValid).Inc()
		p := &entity.Principal{AccountID: claims.Subject, Email: claims.Email, Role: role}
		c.Set(CtxPrincipalKey, p)
		c.Set(CtxUserIDKey, p.AccountID)
		c.Next()
	}
}

// PrincipalFrom returns the authenticated principal, or nil for anonymous requests.
func PrincipalFrom(c *gin.Context) *entity.Principal {
	v, ok := c.Get(CtxPrincipalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*entity.Principal)
	return p
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if PrincipalFrom(c) == nil {
			response.Abort(c, http.StatusUnauthorized, "authentication required")
			return
		}
		c.Next()
	}
}

// RequireRole rejects anonymous requests with 401 and principals outside roles with 403.
func RequireRole(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFrom(c)
		if p == nil {
			response.Abort(c, http.StatusUnauthorized, "authentication required")
			return
		}
		if !p.HasRole(roles...) {
			response.Abort(c, http.StatusForbidden, "insufficient role")
			return
		}
		c.Next()
	}
}
