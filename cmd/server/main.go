// Command server runs the companion backend: wallet, character unlocks,
// gifts, chat sessions and the moments feed over a JSON API.
//
// @title                      Companion API
// @version                    1.0
// @description                Coin wallet, premium characters, gifts and chat sessions with AI companions.
// @BasePath                   /api/v1
// @securityDefinitions.apikey UserID
// @in                         header
// @name                       X-User-ID
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/tbourn/go-companion-backend/docs"
	"github.com/tbourn/go-companion-backend/internal/catalog"
	"github.com/tbourn/go-companion-backend/internal/config"
	httpapi "github.com/tbourn/go-companion-backend/internal/http"
	"github.com/tbourn/go-companion-backend/internal/observability"
	"github.com/tbourn/go-companion-backend/internal/repo"
	"github.com/tbourn/go-companion-backend/internal/services"
	"github.com/tbourn/go-companion-backend/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const idempotencySweepInterval = 10 * time.Minute

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.ConfigureLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	appVersion := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup")
	}

	db, err := repo.Open(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	node, err := snowflake.NewNode(cfg.Economy.NodeID)
	if err != nil {
		log.Fatal().Err(err).Int64("node_id", cfg.Economy.NodeID).Msg("snowflake node")
	}

	cat, err := catalog.LoadOrDefault(cfg.Economy.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Economy.CatalogPath).Msg("load catalog")
	}

	econ := services.NewEconomy(db, cat, node, services.Options{
		SignupBonus:     cfg.Economy.SignupBonus,
		MaxMessageRunes: cfg.Economy.MaxMessageRunes,
	})
	if cfg.Economy.SeedCatalog {
		if err := econ.Seed(ctx, cat); err != nil {
			log.Fatal().Err(err).Msg("seed catalog")
		}
	}
	moments := &services.Moments{DB: db, IDs: node}

	r := gin.New()
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	httpapi.RegisterRoutes(r, db, econ, moments, cfg)

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		docs.SwaggerInfo.Version = appVersion
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	go sweepIdempotency(ctx, db, idempotencySweepInterval)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", appVersion).
			Str("driver", cfg.DB.Driver).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := shutdownOTel(sctx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server exited")
}

// sweepIdempotency periodically drops expired replay records until ctx ends.
func sweepIdempotency(ctx context.Context, db *gorm.DB, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency records")
				continue
			}
			if n > 0 {
				log.Debug().Int64("purged", n).Msg("idempotency records expired")
			}
		}
	}
}
