package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/riskscreen/riskscreen/internal/config"
	"github.com/riskscreen/riskscreen/internal/domain/prediction"
	"github.com/riskscreen/riskscreen/internal/platform/auth"
	"github.com/riskscreen/riskscreen/internal/platform/classifier"
	"github.com/riskscreen/riskscreen/internal/platform/db"
	"github.com/riskscreen/riskscreen/internal/platform/middleware"
	"github.com/riskscreen/riskscreen/internal/platform/telemetry"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "riskscreen-server",
		Short: "Disease risk prediction API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(modelsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the prediction API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is not set")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is not set")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Inspect model artifacts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the models the server would load",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			_, infos, err := classifier.Load(cfg.ModelDir, cfg.ONNXLibPath)
			if err != nil {
				return err
			}

			fmt.Printf("%-16s %-8s %-8s %s\n", "DISEASE", "KIND", "WIDTH", "FILE")
			for _, info := range infos {
				width := "-"
				if info.Width > 0 {
					width = fmt.Sprintf("%d", info.Width)
				}
				fmt.Printf("%-16s %-8s %-8s %s\n", info.Disease, info.Kind, width, info.File)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check that every model's input width matches its field schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			_, infos, err := classifier.Load(cfg.ModelDir, cfg.ONNXLibPath)
			if err != nil {
				return err
			}

			failed := false
			for _, info := range infos {
				fields := prediction.Fields(info.Disease)
				switch {
				case fields == nil:
					failed = true
					fmt.Printf("%-16s no field schema for this disease\n", info.Disease)
				case info.Width > 0 && info.Width != len(fields):
					failed = true
					fmt.Printf("%-16s model expects %d features, schema has %d\n", info.Disease, info.Width, len(fields))
				default:
					fmt.Printf("%-16s ok\n", info.Disease)
				}
			}
			if failed {
				return fmt.Errorf("model validation failed")
			}
			return nil
		},
	})

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	registry, infos, err := classifier.Load(cfg.ModelDir, cfg.ONNXLibPath)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.ModelDir).Msg("failed to load models")
	}
	for _, info := range infos {
		logger.Info().Str("disease", info.Disease).Str("kind", info.Kind).Str("file", info.File).Msg("model loaded")
	}
	if registry.Len() == 0 {
		logger.Warn().Str("dir", cfg.ModelDir).Msg("no models found; every prediction will fail")
	}

	ctx := context.Background()

	var history prediction.Repository = prediction.NewMemoryRepository()
	var pool *pgxpool.Pool
	if cfg.HistoryEnabled() {
		p, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer p.Close()
		pool = p
		history = prediction.NewRepoPG(p)
		logger.Info().Msg("connected to database; prediction history persisted")
	} else {
		logger.Info().Msg("DATABASE_URL not set; prediction history kept in memory")
	}

	metrics := telemetry.NewMetrics()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	if cfg.AuthSecret != "" && !cfg.IsDev() {
		apiV1.Use(auth.JWTMiddleware([]byte(cfg.AuthSecret)))
	}

	predSvc := prediction.NewService(registry, history, logger)
	predHandler := prediction.NewHandler(predSvc, metrics)
	predHandler.RegisterRoutes(apiV1)

	e.GET("/health", func(c echo.Context) error {
		resp := map[string]interface{}{
			"status":  "ok",
			"version": version,
			"models":  registry.IDs(),
		}
		if pool != nil {
			stats := db.Stats(c.Request().Context(), pool)
			resp["db"] = stats
			if !stats.Healthy {
				resp["status"] = "degraded"
				return c.JSON(http.StatusServiceUnavailable, resp)
			}
		}
		return c.JSON(http.StatusOK, resp)
	})
	e.GET("/metrics", metrics.Handler())

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
