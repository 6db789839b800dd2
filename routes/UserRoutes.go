package routes

import (
	"github.com/gin-gonic/gin"

	"catalog-api/controllers"
)

func UserRouter(api *gin.RouterGroup, users *controllers.UserController, requireAuth gin.HandlerFunc) {
	api.GET("/users", users.List)
	api.GET("/users/search", users.Search)
	api.GET("/users/:id", users.Get)
	api.POST("/users", users.Create)
	api.PUT("/users/:id", requireAuth, users.Update)
	api.DELETE("/users/:id", requireAuth, users.Delete)
}
