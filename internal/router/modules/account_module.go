package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/mother-community/internal/domain/entity"
	handlers "github.com/oksasatya/mother-community/internal/interface/http"
	"github.com/oksasatya/mother-community/internal/interface/middleware"
	"github.com/oksasatya/mother-community/pkg/helpers"
)

type AccountModule struct {
	Handler *handlers.AccountHandler
	JWT     *helpers.JWTManager
}

func NewAccountModule(h *handlers.AccountHandler, jwt *helpers.JWTManager) *AccountModule {
	return &AccountModule{Handler: h, JWT: jwt}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	auth := protected(rg, m.JWT)
	{
		auth.DELETE("/account", m.Handler.DeleteOwn)
	}

	admin := protected(rg, m.JWT)
	admin.Use(middleware.RequireRole(entity.RoleAdmin))
	{
		admin.DELETE("/admin/accounts/:id", m.Handler.DeleteMember)
	}
}
