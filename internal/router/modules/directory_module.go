package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/mother-community/internal/interface/http"
	"github.com/oksasatya/mother-community/pkg/helpers"
)

// DirectoryModule serves the member directory under /api/profiles.
type DirectoryModule struct {
	Directory *handlers.DirectoryHandler
	Profiles  *handlers.ProfileHandler
	JWT       *helpers.JWTManager
}

func NewDirectoryModule(d *handlers.DirectoryHandler, p *handlers.ProfileHandler, jwt *helpers.JWTManager) *DirectoryModule {
	return &DirectoryModule{Directory: d, Profiles: p, JWT: jwt}
}

func (m *DirectoryModule) Register(rg *gin.RouterGroup) {
	auth := protected(rg, m.JWT)
	{
		auth.GET("/profiles", m.Directory.List)
		auth.GET("/profiles/search", m.Directory.Search)
		auth.GET("/profiles/:id", m.Profiles.Get)
	}
}
