package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"catalog-api/config"
	"catalog-api/database"
	"catalog-api/helpers"
	"catalog-api/middleware"
	"catalog-api/routes"
	"catalog-api/validation"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalln("load config:", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalln(err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Println("disconnect mongo:", err)
		}
	}()
	db := client.Database(cfg.DBName)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.Println(err)
		return
	}

	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimit)
	if err != nil {
		log.Println(err)
		return
	}

	router, err := routes.NewRouter(routes.Dependencies{
		Users:          database.NewUserStore(db),
		Products:       database.NewProductStore(db),
		Credentials:    helpers.NewCredentials(cfg.JWTSecret, cfg.BcryptCost),
		Gate:           validation.NewGate(time.Now),
		Cookie:         helpers.CookieOptions{Domain: cfg.Cookie.Domain, Secure: cfg.Cookie.Secure},
		Limiter:        rateLimiter,
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		log.Println(err)
		return
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Server running on %s (%s)", server.Addr, cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Println(err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("shutdown:", err)
	}
}
