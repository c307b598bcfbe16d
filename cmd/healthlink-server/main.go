package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/healthlink/healthlink/internal/config"
	"github.com/healthlink/healthlink/internal/domain/articles"
	"github.com/healthlink/healthlink/internal/domain/chat"
	"github.com/healthlink/healthlink/internal/domain/identity"
	"github.com/healthlink/healthlink/internal/domain/scheduling"
	"github.com/healthlink/healthlink/internal/domain/triage"
	"github.com/healthlink/healthlink/internal/platform/auth"
	"github.com/healthlink/healthlink/internal/platform/db"
	"github.com/healthlink/healthlink/internal/platform/middleware"
	"github.com/healthlink/healthlink/internal/platform/realtime"
	"github.com/healthlink/healthlink/pkg/response"
)

func main() {
	root := &cobra.Command{
		Use:   "healthlink-server",
		Short: "HealthLink telehealth API server",
	}

	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	var dir string
	cmd.PersistentFlags().StringVar(&dir, "dir", "./migrations", "Directory containing migration files")

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Applied %d migration(s)\n", applied)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%-8s %-40s %s\n", "VERSION", "NAME", "APPLIED")
			for _, s := range statuses {
				applied := "no"
				if s.Applied {
					applied = "yes"
				}
				fmt.Printf("%-8d %-40s %s\n", s.Version, s.Name, applied)
			}
			return nil
		},
	}

	cmd.AddCommand(upCmd, statusCmd)
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Presence backend. Redis when configured, so that multiple server
	// instances share online state; in-process map otherwise.
	var presence realtime.Presence
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		presence = realtime.NewRedisPresence(rdb)
		logger.Info().Msg("using redis presence")
	} else {
		presence = realtime.NewMemoryPresence()
	}

	secret := []byte(cfg.JWTSecret)
	issuer := auth.NewTokenIssuer(secret, time.Duration(cfg.JWTTTLHours)*time.Hour)

	// Repositories
	userRepo := identity.NewRepoPG(pool)
	messageRepo := chat.NewMessageRepoPG(pool)
	convRepo := chat.NewConversationRepoPG(pool)
	apptRepo := scheduling.NewRepoPG(pool)
	triageRepo := triage.NewRepoPG(pool)
	articleRepo := articles.NewRepoPG(pool)

	// Services
	userSvc := identity.NewService(userRepo)
	inTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.InTx(ctx, pool, fn)
	}
	chatSvc := chat.NewService(messageRepo, convRepo, identity.NewChatDirectory(userRepo), inTx)
	apptSvc := scheduling.NewService(apptRepo)
	triageSvc := triage.NewService(triageRepo)
	articleSvc := articles.NewService(articleRepo)

	// Realtime gateway. The handshake verifies the same JWTs the HTTP
	// middleware does; conversation ids are re-derived server-side.
	verify := func(token string) (uuid.UUID, error) {
		claims, err := auth.VerifyToken(token, secret)
		if err != nil {
			return uuid.Nil, err
		}
		return uuid.Parse(claims.Subject)
	}
	gateway := realtime.NewGateway(presence, verify, chat.ConversationKey, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = response.HTTPErrorHandler(logger, cfg.IsDev())

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	// Public routes: auth and monitoring.
	public := e.Group("/api")
	public.Use(middleware.RateLimit(rateLimitCfg))

	startedAt := time.Now()
	public.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	public.GET("/status", func(c echo.Context) error {
		dbStatus := "up"
		pingCtx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(pingCtx, pool); err != nil {
			dbStatus = "down"
		}
		return response.OK(c, http.StatusOK, map[string]interface{}{
			"uptime_seconds": int(time.Since(startedAt).Seconds()),
			"database":       dbStatus,
			"pool":           db.GetPoolStats(pool),
			"connections":    gateway.ConnCount(),
		})
	})

	// Authenticated routes.
	api := e.Group("/api")
	api.Use(middleware.RateLimit(rateLimitCfg))
	api.Use(auth.Middleware(secret))

	identity.NewHandler(userSvc, issuer).RegisterRoutes(public, api)
	chat.NewHandler(chatSvc).RegisterRoutes(api)
	scheduling.NewHandler(apptSvc).RegisterRoutes(api)
	triage.NewHandler(triageSvc).RegisterRoutes(api)
	articles.NewHandler(articleSvc).RegisterRoutes(api)

	// Websocket endpoint authenticates inside the handshake, before upgrade.
	e.GET("/ws", gateway.HandleConnect)

	// Start
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	gateway.Shutdown()
	logger.Info().Msg("server stopped")
	return nil
}
