package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/mother-community/internal/container"
	handlers "github.com/oksasatya/mother-community/internal/interface/http"
	"github.com/oksasatya/mother-community/internal/interface/middleware"
	"github.com/oksasatya/mother-community/pkg/helpers"
)

// EventModule lists upcoming events publicly; creating one needs a session.
type EventModule struct {
	Handler *handlers.EventHandler
	JWT     *helpers.JWTManager
}

func NewEventModule(h *handlers.EventHandler, jwt *helpers.JWTManager) *EventModule {
	return &EventModule{Handler: h, JWT: jwt}
}

func (m *EventModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	rg.GET("/events", middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByIP(), nil), m.Handler.List)

	auth := protected(rg, m.JWT)
	{
		auth.POST("/events", middleware.RateLimit(rdb, 10, time.Hour, middleware.KeyByUserID(), nil), m.Handler.Create)
	}
}
