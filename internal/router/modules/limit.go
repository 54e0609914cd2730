package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-event-api/internal/container"
	"github.com/oksasatya/go-event-api/internal/interface/middleware"
)

// limit picks the shared Redis limiter when Redis is wired, else a per-process one.
func limit(max int, window time.Duration, keyFn middleware.KeyFunc, allow middleware.AllowFunc) gin.HandlerFunc {
	if rdb := container.GetRedis(); rdb != nil {
		return middleware.RateLimit(rdb, max, window, keyFn, allow, container.GetLogger())
	}
	return middleware.LocalRateLimit(max, window, keyFn, allow)
}
