package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-event-api/internal/application"
	"github.com/oksasatya/go-event-api/internal/infrastructure/lock"
	"github.com/oksasatya/go-event-api/pkg/helpers"
	"github.com/oksasatya/go-event-api/pkg/response"
)

// writeError maps service errors onto the response envelope. Unknown errors
// are logged and reported as 500 without leaking details.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	var lf *application.LoginFailError
	switch {
	case errors.As(err, &lf):
		response.Error[any](c, http.StatusUnprocessableEntity, lf.Reason, nil)
	case errors.Is(err, application.ErrAccountNotFound):
		response.Error[any](c, http.StatusNotFound, "account not found", nil)
	case errors.Is(err, application.ErrEmailNotVerified):
		response.Error[any](c, http.StatusForbidden, "email not verified", nil)
	case errors.Is(err, application.ErrInvalidPassword):
		response.Error[any](c, http.StatusBadRequest, "invalid password", nil)
	case errors.Is(err, application.ErrMailDelivery):
		helpers.LogError(logger, "mail delivery failed", err, logrus.Fields{"request_id": c.GetString("request_id")})
		response.Error[any](c, http.StatusBadGateway, "verification mail could not be sent", nil)
	case errors.Is(err, helpers.ErrUnsupportedImage):
		response.Error[any](c, http.StatusUnsupportedMediaType, "unsupported image type", nil)
	case errors.Is(err, application.ErrUploadsDisabled), errors.Is(err, application.ErrSearchDisabled):
		response.Error[any](c, http.StatusServiceUnavailable, err.Error(), nil)
	case errors.Is(err, lock.ErrLockTimeout), errors.Is(err, context.DeadlineExceeded):
		response.Error[any](c, http.StatusServiceUnavailable, "busy, retry shortly", nil)
	default:
		helpers.LogError(logger, "request failed", err, logrus.Fields{"request_id": c.GetString("request_id"), "path": c.FullPath()})
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
	}
}
