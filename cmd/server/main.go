package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	httpapi "github.com/basel-ax/txt2img/internal/api/http"
	"github.com/basel-ax/txt2img/internal/config"
	"github.com/basel-ax/txt2img/internal/infrastructure/huggingface"
	"github.com/basel-ax/txt2img/internal/logging"
	"github.com/basel-ax/txt2img/internal/repository"
	"github.com/basel-ax/txt2img/internal/service"
	"github.com/basel-ax/txt2img/internal/storage"
)

const (
	serviceName     = "txt2img"
	shutdownTimeout = 10 * time.Second
)

func main() {
	// Parse command line flags
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	runCron := flag.Bool("cron", false, "Audit generation history on AUDIT_SCHEDULE (requires DB_HOST)")
	flag.Parse()

	// config.Load logs, so set up the console logger from the process env first
	logging.Init(lo.Ternary(*verbose, "debug", os.Getenv("LOG_LEVEL")))

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// LOG_LEVEL may have come from .env
	logging.Init(lo.Ternary(*verbose, "debug", cfg.App.LogLevel))
	if cfg.HuggingFace.APIKey == "" {
		log.Warn().Msg("HUGGING_FACE_API_KEY is not set, generation requests will fail")
	}
	gin.SetMode(lo.Ternary(*verbose, gin.DebugMode, gin.ReleaseMode))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// History is optional, generation works without a database
	var (
		db      *sql.DB
		imgRepo repository.ImageRepository
		pinger  httpapi.Pinger
	)
	if cfg.DB.Enabled() {
		db, err = openDatabase(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		pgRepo := repository.NewPostgresImageRepository(db)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare images table")
		}
		imgRepo = pgRepo
		pinger = db
		log.Info().Str("host", cfg.DB.Host).Msg("generation history enabled")
	}

	store := storage.NewFileStore(cfg.ImagesDir)
	client := huggingface.NewClient(huggingface.Config{
		APIKey:   cfg.HuggingFace.APIKey,
		ModelURL: cfg.HuggingFace.ModelURL,
		Timeout:  cfg.HuggingFace.Timeout,
	})
	imgService := service.NewImageGenerationService(client, store, imgRepo)

	router := httpapi.NewRouter(
		httpapi.RouterConfig{AllowedOrigins: cfg.Server.AllowedOrigins},
		httpapi.NewImageHandler(imgService),
		httpapi.NewHealthHandler(serviceName, cfg.App.Version, pinger),
	)

	// No write timeout: a cold model load can keep a request open for minutes
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("images_dir", store.Dir()).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if *runCron {
		if imgRepo == nil {
			log.Warn().Msg("-cron ignored: generation history is not configured")
		} else {
			auditor := service.NewHistoryAuditor(imgRepo, store)
			g.Go(func() error {
				return startCronAudit(gctx, auditor, cfg.AuditSchedule)
			})
		}
	}

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func startCronAudit(ctx context.Context, auditor *service.HistoryAuditor, schedule string) error {
	c := cron.New(cron.WithSeconds())

	var cronMutex sync.Mutex

	_, err := c.AddFunc(schedule, func() {
		if !cronMutex.TryLock() {
			log.Warn().Msg("[CRON] previous history audit still running, skipping")
			return
		}
		defer cronMutex.Unlock()

		marked, err := auditor.Run(ctx)
		if err != nil {
			log.Error().Err(err).Msg("[CRON] history audit failed")
			return
		}
		log.Info().Int("marked_missing", marked).Msg("[CRON] history audit finished")
	})
	if err != nil {
		return err
	}

	c.Start()
	log.Info().Str("schedule", schedule).Msg("cron scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	log.Info().Msg("cron scheduler stopped")
	return nil
}
