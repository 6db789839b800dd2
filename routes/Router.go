package routes

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"catalog-api/controllers"
	"catalog-api/database"
	"catalog-api/helpers"
	"catalog-api/middleware"
	"catalog-api/validation"
)

// Dependencies are the collaborators shared by every route.
type Dependencies struct {
	Users       database.UserStore
	Products    database.ProductStore
	Credentials *helpers.Credentials
	Gate        *validation.Gate
	Cookie      helpers.CookieOptions
	// Limiter is optional; nil disables rate limiting.
	Limiter     *limiter.Limiter
	CORSOrigins []string
	// TrustedProxies lists the peers whose X-Forwarded-For is honoured.
	// Empty means the client IP is always the socket address.
	TrustedProxies []string
}

// NewRouter builds the engine with the middleware chain and every route
// under /api.
func NewRouter(d Dependencies) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(d.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	router.Use(middleware.RequestID(), gin.Logger(), gin.Recovery())
	if len(d.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	api := router.Group("/api")
	if d.Limiter != nil {
		api.Use(middleware.RateLimit(d.Limiter))
	}
	requireAuth := middleware.RequireAuth(d.Credentials, d.Users)

	AuthRouter(api, controllers.NewAuthController(d.Users, d.Gate, d.Credentials, d.Cookie), requireAuth)
	UserRouter(api, controllers.NewUserController(d.Users, d.Gate, d.Credentials), requireAuth)
	ProductRouter(api, controllers.NewProductController(d.Products, d.Gate), requireAuth)

	router.NoRoute(func(c *gin.Context) {
		helpers.Fail(c, helpers.NotFound("Route not found"))
	})
	return router, nil
}
