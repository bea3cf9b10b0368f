package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Module is a feature area that registers its routes under /api.
type Module interface {
	Register(rg *gin.RouterGroup)
}

// Registry collects modules and API-wide middleware and mounts them on the
// engine in the order they were added.
type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	Logger      *logrus.Logger
	middlewares []gin.HandlerFunc
	modules     []Module
}

func NewRegistry(engine *gin.Engine) *Registry {
	api := engine.Group("/api")
	return &Registry{Engine: engine, API: api}
}

func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

// RegisterAll applies the middleware and lets every module add its routes.
// It returns the number of routes mounted under /api.
func (r *Registry) RegisterAll() int {
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.Register(r.API)
	}

	n := 0
	base := r.API.BasePath()
	for _, rt := range r.Engine.Routes() {
		if strings.HasPrefix(rt.Path, base) {
			n++
			if r.Logger != nil {
				r.Logger.WithFields(logrus.Fields{"method": rt.Method, "path": rt.Path}).Debug("route registered")
			}
		}
	}
	return n
}
