package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/photomemories/backend/internal/albums"
	"github.com/photomemories/backend/internal/auth"
	"github.com/photomemories/backend/internal/config"
	"github.com/photomemories/backend/internal/database"
	"github.com/photomemories/backend/internal/enhancements"
	"github.com/photomemories/backend/internal/integrations"
	"github.com/photomemories/backend/internal/ledger"
	"github.com/photomemories/backend/internal/middleware"
	"github.com/photomemories/backend/internal/models"
	"github.com/photomemories/backend/internal/photos"
	"github.com/photomemories/backend/internal/processing"
	"github.com/photomemories/backend/internal/router"
	"github.com/photomemories/backend/internal/storage"
	"github.com/photomemories/backend/internal/videos"
	"github.com/photomemories/backend/pkg/logger"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("connect to postgres (is it running? try docker-compose up -d)", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	log.Info("connected to postgres")

	if err := database.Migrate(ctx, pool); err != nil {
		log.Error("apply schema", "error", err)
		os.Exit(1)
	}

	// River's own tables
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		log.Error("create river migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		log.Error("river migrate up", "error", err)
		os.Exit(1)
	}
	log.Info("river migrations applied")

	ledgerRepo := ledger.NewRepository(pool)
	ledgerSvc := ledger.NewService(ledgerRepo)

	var blobs storage.Store
	if cfg.StorageEnabled() {
		blobs, err = storage.NewS3Store(storage.Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
			UsePathStyle:  cfg.S3UsePathStyle,
			Prefix:        cfg.S3Prefix,
		})
		if err != nil {
			log.Error("configure blob storage", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("blob storage not configured; uploads disabled")
		blobs = storage.Disabled{}
	}

	// Enhancement jobs: the insert func is set after the River client exists
	// (the client needs the worker, the worker needs the service).
	var insertMu sync.Mutex
	var insertFn enhancements.InsertEnhanceTxFunc
	insertEnhance := func(ctx context.Context, tx pgx.Tx, args processing.EnhanceJobArgs) error {
		insertMu.Lock()
		fn := insertFn
		insertMu.Unlock()
		if fn == nil {
			panic("river insert not wired")
		}
		return fn(ctx, tx, args)
	}

	jobsRepo := enhancements.NewRepository(pool)
	jobsSvc := enhancements.NewService(jobsRepo, ledgerSvc, insertEnhance)

	photosRepo := photos.NewRepository(pool)
	videosRepo := videos.NewRepository(pool)

	enhancer := processing.NewSimulatedEnhancer(photosRepo, videosRepo, 2*time.Second)
	workers := river.NewWorkers()
	river.AddWorker(workers, processing.NewEnhanceWorker(jobsSvc, enhancer))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
	})
	if err != nil {
		log.Error("create river client", "error", err)
		os.Exit(1)
	}

	insertMu.Lock()
	insertFn = func(ctx context.Context, tx pgx.Tx, args processing.EnhanceJobArgs) error {
		_, err := riverClient.InsertTx(ctx, tx, args, nil)
		return err
	}
	insertMu.Unlock()

	authRepo := auth.NewRepository(pool)
	authSvc := auth.NewService(authRepo, []byte(cfg.JWTSecret), cfg.TokenTTL)
	authHandler := auth.NewHandler(authSvc, log)

	photosSvc := photos.NewService(photosRepo, blobs, log)
	photosHandler := photos.NewHandler(photosSvc, log)

	videosSvc := videos.NewService(videosRepo, blobs, log)
	videosHandler := videos.NewHandler(videosSvc, log)

	albumsRepo := albums.NewRepository(pool)
	albumsSvc := albums.NewService(albumsRepo)
	albumsHandler := albums.NewHandler(albumsSvc, log)

	enhHandler := enhancements.NewHandler(jobsSvc, ledgerSvc, log)

	integrationsRepo := integrations.NewRepository(pool)
	integrationsSvc := integrations.NewService(integrationsRepo, []integrations.Provider{
		integrations.Placeholder{Kind: models.PhotoSourceGooglePhotos},
		integrations.Placeholder{Kind: models.PhotoSourceOneDrive},
	}, log)
	integrationsHandler := integrations.NewHandler(integrationsSvc, log)

	authMW := middleware.Auth(authSvc, authRepo)
	gateMW := middleware.EnhanceGate(ledgerSvc)

	apiRouter := router.New(
		authHandler, photosHandler, videosHandler, albumsHandler,
		enhHandler, integrationsHandler, authMW, gateMW,
	)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(apiRouter)

	riverCtx, stopRiver := context.WithCancel(ctx)
	defer stopRiver()
	go func() {
		if err := riverClient.Start(riverCtx); err != nil && riverCtx.Err() == nil {
			log.Error("river client stopped", "error", err)
		}
	}()

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.APIPort)
	log.Info("starting HTTP server", "addr", addr)
	if err := http.ListenAndServe(addr, corsHandler); err != nil {
		log.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}
