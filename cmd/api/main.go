package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/castellan-io/backoffice/api/controllers"
	"github.com/castellan-io/backoffice/api/routes"
	"github.com/castellan-io/backoffice/internal/auth"
	"github.com/castellan-io/backoffice/internal/giftcards"
	"github.com/castellan-io/backoffice/internal/media"
	"github.com/castellan-io/backoffice/internal/users"
	"github.com/castellan-io/backoffice/pkg/config"
	"github.com/castellan-io/backoffice/pkg/db"
	"github.com/castellan-io/backoffice/pkg/logger"
	"github.com/castellan-io/backoffice/pkg/migrate"
	"github.com/castellan-io/backoffice/pkg/redis"
	"github.com/castellan-io/backoffice/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	newDB := db.New
	if cfg.FeatureFlags.UseSQLite {
		newDB = db.NewSQLite
	}
	dbClient, err := newDB(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	giftCardService, err := giftcards.NewService(giftcards.ServiceParams{
		TxRunner: dbClient,
		RepoFactory: func(tx *gorm.DB) giftcards.Repository {
			if tx == nil {
				return giftcards.NewRepository(dbClient.DB())
			}
			return giftcards.NewRepository(tx)
		},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create gift card service", err)
		os.Exit(1)
	}

	var gcsClient *gcs.Client
	var mediaService media.Service
	if cfg.GCS.BucketName != "" {
		gcsClient, err = gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap gcs", err)
			os.Exit(1)
		}
		mediaService, err = media.NewService(media.ServiceParams{
			GCS:         gcsClient,
			Bucket:      cfg.GCS.BucketName,
			UploadTTL:   cfg.GCS.UploadURLExpiry,
			MaxUploadMB: cfg.Media.MaxUploadMB,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create media service", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "gcs bucket not configured, media uploads disabled")
	}

	var gcsProbe controllers.Pinger
	if gcsClient != nil {
		gcsProbe = gcsClient
	}
	probes := controllers.ReadyProbes(dbClient, redisClient, gcsProbe)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, probes, authService, giftCardService, mediaService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
