package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/vns-shanshan/cineverse-api/internal/config"
	"github.com/vns-shanshan/cineverse-api/internal/database"
	"github.com/vns-shanshan/cineverse-api/internal/handler"
	"github.com/vns-shanshan/cineverse-api/internal/middleware"
	"github.com/vns-shanshan/cineverse-api/internal/queue"
	"github.com/vns-shanshan/cineverse-api/internal/repository"
	"github.com/vns-shanshan/cineverse-api/internal/router"
	"github.com/vns-shanshan/cineverse-api/internal/service"
	"github.com/vns-shanshan/cineverse-api/internal/storage"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	photos, err := storage.NewFileStore(cfg.PhotoDir, cfg.PhotoBaseURL)
	if err != nil {
		log.Fatalf("photo store: %v", err)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	movies := repository.NewMovieRepo(db)
	svc := service.NewMovieService(movies, photos, queue.PublishMovieEvent)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	movieH := handler.NewMovieHandler(svc)

	// Redis is optional: a nil client turns the cache and the rate limiter
	// into pass-throughs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, cache and rate limiting disabled")
	}
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e := echo.New()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.BodyLimit("5M"))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, cfg.JWTSecret))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterMovies(e, movieH, cfg.JWTSecret, cache)
	e.Static("/uploads", cfg.PhotoDir)

	go func() {
		if err := queue.StartCatalogConsumer(); err != nil {
			log.Printf("catalog consumer stopped: %v", err)
		}
	}()

	// Expired refresh tokens are dead rows once past their revocation grace;
	// prune them in the background instead of on the login path.
	go func() {
		for range time.Tick(12 * time.Hour) {
			if err := tokens.DeleteExpired(context.Background(), 24*time.Hour); err != nil {
				log.Printf("refresh token prune: %v", err)
			}
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
