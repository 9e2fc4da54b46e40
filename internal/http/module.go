package http

import (
	"github.com/gin-gonic/gin"
)

// Module is a bounded context that registers its own routes.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides shared route groups to modules.
type RouterContext struct {
	Engine *gin.Engine
	// Protected is the authenticated /api group.
	Protected *gin.RouterGroup
	// Manager is Protected restricted to the gestor role.
	Manager *gin.RouterGroup
}
