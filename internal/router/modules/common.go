package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/mother-community/internal/container"
	"github.com/oksasatya/mother-community/internal/interface/middleware"
	"github.com/oksasatya/mother-community/pkg/helpers"
)

// protected returns a sub-group that requires a valid session and applies
// the default per-IP and per-user limits.
func protected(rg *gin.RouterGroup, jwt *helpers.JWTManager) *gin.RouterGroup {
	rdb := container.GetRedis()
	g := rg.Group("/")
	g.Use(middleware.Auth(rdb, jwt))
	g.Use(
		middleware.RateLimit(rdb, 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	return g
}
