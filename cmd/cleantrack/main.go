package main

import (
	"context"
	"time"

	"github.com/cleantrack-dev/cleantrack/db"
	"github.com/cleantrack-dev/cleantrack/internal/auth"
	"github.com/cleantrack-dev/cleantrack/internal/config"
	"github.com/cleantrack-dev/cleantrack/internal/handlers"
	"github.com/cleantrack-dev/cleantrack/internal/ratelimit"
	"github.com/cleantrack-dev/cleantrack/internal/realtime"
	"github.com/cleantrack-dev/cleantrack/internal/router"
	"github.com/cleantrack-dev/cleantrack/internal/services"
	"github.com/cleantrack-dev/cleantrack/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func setupLogger(cfg config.Config) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)

	if err != nil {
		level = logrus.InfoLevel
	}

	log.SetLevel(level)

	if cfg.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return log
}

func main() {
	cfg, err := config.Load()

	if err != nil {
		logrus.Fatalf("Error loading configuration: %v", err)
	}

	log := setupLogger(cfg)

	conn, err := db.Connect(cfg.DatabaseURL, log)

	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err = db.Migrate(conn); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	repo := store.New(conn)

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	if err != nil {
		log.Fatalf("Failed to configure tokens: %v", err)
	}

	hub := realtime.NewHub(cfg.AllowedOrigins(), log)

	svc := services.New(services.Deps{
		Repo:     repo,
		Hasher:   auth.Hasher{Cost: cfg.BcryptCost},
		Tokens:   tokens,
		Notifier: hub,
		Log:      log,
	})

	if cfg.Admin.Email != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		created, err := svc.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
		cancel()

		if err != nil {
			log.Fatalf("Failed to bootstrap admin: %v", err)
		}

		if created {
			log.WithField("email", cfg.Admin.Email).Info("admin account created")
		}
	}

	// Left as a nil interface when Redis is not configured.
	var limiter ratelimit.Limiter

	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rl, err := ratelimit.NewRedisLimiter(ctx, cfg.RedisURL)
		cancel()

		if err != nil {
			log.WithError(err).Warn("redis unavailable, auth rate limiting disabled")
		} else {
			defer rl.Close()
			limiter = rl
		}
	} else {
		log.Info("REDIS_URL not set, auth rate limiting disabled")
	}

	h := handlers.New(svc, hub, log, handlers.CookieConfig{
		Domain: cfg.CookieDomain,
		Secure: cfg.IsProduction(),
		MaxAge: int(tokens.TTL().Seconds()),
	})

	r := router.NewRouter(router.Deps{
		Handler:        h,
		Tokens:         tokens,
		Users:          repo,
		Limiter:        limiter,
		AuthRateLimit:  cfg.AuthRateLimit,
		AllowedOrigins: cfg.AllowedOrigins(),
		Log:            log,
	})

	log.WithField("port", cfg.Port).Info("starting server")

	if err = r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
