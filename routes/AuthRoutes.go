package routes

import (
	"github.com/gin-gonic/gin"

	"catalog-api/controllers"
)

func AuthRouter(api *gin.RouterGroup, auth *controllers.AuthController, requireAuth gin.HandlerFunc) {
	api.POST("/register", auth.Register)
	api.POST("/login", auth.Login)
	api.POST("/logout", auth.Logout)

	account := api.Group("", requireAuth)
	account.GET("/profile", auth.Profile)
	account.PUT("/profile", auth.UpdateProfile)
	account.PUT("/change-password", auth.ChangePassword)
	account.DELETE("/deactivate", auth.Deactivate)
}
