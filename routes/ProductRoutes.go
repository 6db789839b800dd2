package routes

import (
	"github.com/gin-gonic/gin"

	"catalog-api/controllers"
)

func ProductRouter(api *gin.RouterGroup, products *controllers.ProductController, requireAuth gin.HandlerFunc) {
	api.GET("/products", products.List)
	api.GET("/products/search", products.Search)
	api.GET("/products/category/:category", products.ListByCategory)
	api.GET("/products/:id", products.Get)
	api.POST("/products", requireAuth, products.Create)
	api.PUT("/products/:id", requireAuth, products.Update)
	api.DELETE("/products/:id", requireAuth, products.Delete)
}
