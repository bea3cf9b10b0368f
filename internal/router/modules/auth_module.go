package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/mother-community/internal/container"
	handlers "github.com/oksasatya/mother-community/internal/interface/http"
	"github.com/oksasatya/mother-community/internal/interface/middleware"
	"github.com/oksasatya/mother-community/pkg/helpers"
)

// AuthModule serves registration, login and session management.
// Public: POST /api/auth/register, /api/auth/login, /api/auth/refresh
// Protected: POST /api/auth/logout, GET /api/auth/session, PUT /api/auth/password
type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	registerLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/auth/register", registerLimiter, m.Handler.Register)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	rg.POST("/auth/refresh", refreshLimiter, m.Handler.Refresh)

	auth := protected(rg, m.JWT)
	{
		auth.POST("/auth/logout", m.Handler.Logout)
		auth.GET("/auth/session", m.Handler.Session)
		auth.PUT("/auth/password", middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByUserID(), nil), m.Handler.ChangePassword)
	}
}
