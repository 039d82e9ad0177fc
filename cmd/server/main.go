package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/go-redis/redis/v8"
	"github.com/lucap2714-svg/fisiostudio/internal/api"
	"github.com/lucap2714-svg/fisiostudio/internal/calendar"
	"github.com/lucap2714-svg/fisiostudio/internal/config"
	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/lucap2714-svg/fisiostudio/internal/metrics"
	"github.com/lucap2714-svg/fisiostudio/internal/repository"
	"github.com/lucap2714-svg/fisiostudio/internal/repository/filemirror"
	"github.com/lucap2714-svg/fisiostudio/internal/repository/memory"
	"github.com/lucap2714-svg/fisiostudio/internal/repository/mongo"
	"github.com/lucap2714-svg/fisiostudio/internal/repository/redis"
	"github.com/lucap2714-svg/fisiostudio/internal/repository/sqlstore"
	"github.com/lucap2714-svg/fisiostudio/internal/service"
	"github.com/lucap2714-svg/fisiostudio/internal/storage"
	"github.com/lucap2714-svg/fisiostudio/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// @title FisioStudio API
// @version 1.0
// @description Scheduling, attendance and clinical records for a physiotherapy studio.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log.Println("Starting FisioStudio Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("FATAL: jwt.secret must be set (JWT_SECRET)")
	}
	log.Printf("Configuration loaded (storage driver %s).", cfg.Storage.Driver)
	loc := cfg.Studio.Location()

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// --- Document Backend ---
	backend, err := newBackend(cfg)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	// --- Mirror and Change Broadcast ---
	var (
		mirror      repository.Mirror
		broadcaster repository.Broadcaster
		redisClient *goredis.Client
	)
	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		redisClient, err = redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		cancel()
		if err != nil {
			log.Fatalf("FATAL: Could not connect to Redis: %v", err)
		}
		mirror = redis.NewMirror(redisClient)
		broadcaster = redis.NewBroadcaster(redisClient, cfg.Redis.Channel)
		log.Printf("Redis mirror and broadcast enabled on %s.", cfg.Redis.Addr)
	} else {
		if cfg.Mirror.Path != "" {
			mirror = filemirror.New(cfg.Mirror.Path)
		}
		broadcaster = memory.NewBroadcaster()
	}

	// --- Seed ---
	seed := store.DefaultSeedStudents()
	if cfg.Seed.File != "" {
		seed, err = store.LoadSeedFile(cfg.Seed.File)
		if err != nil {
			log.Fatalf("FATAL: Could not load seed students: %v", err)
		}
	}

	// --- Document Store ---
	docStore := store.New(store.Options{
		Backend:      backend,
		Mirror:       mirror,
		Broadcaster:  broadcaster,
		SchemaTag:    cfg.Seed.Tag,
		SeedStudents: seed,
		MirrorKey:    cfg.Mirror.Key,
		Metrics:      m,
	})
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	err = docStore.Load(loadCtx)
	cancelLoad()
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			log.Fatalf("FATAL: Document store unavailable: %v", err)
		}
		log.Fatalf("FATAL: Could not load document store: %v", err)
	}
	log.Println("Document store loaded.")

	// --- Object Storage ---
	var fileStorage storage.FileStorage
	if cfg.S3.BucketName != "" {
		log.Println("Initializing file storage service...")
		fileStorage, err = storage.NewS3Storage(context.Background(), cfg.S3)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
		}
	} else {
		log.Println("WARN: s3.bucket_name not set, backups are recorded without snapshots.")
	}

	// --- Initialize Services ---
	log.Println("Initializing services...")
	syncer := calendar.NewSyncer(calendar.Options{
		Enabled: cfg.Calendar.Enabled,
		Latency: cfg.Calendar.Latency,
		Logs:    docStore,
		NewID:   docStore.NewID,
		Metrics: m,
	})
	authService := service.NewAuthService(cfg.JWT.Secret, cfg.JWT.Expiration)
	scheduleService := service.NewScheduleService(docStore, syncer, m)
	backupService := service.NewBackupService(docStore, fileStorage)

	// --- Initialize Gin Engine ---
	// The events stream carries its token in the query string, so it stays
	// out of the access log.
	router := gin.New()
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{SkipPaths: []string{api.EventsPath}}), gin.Recovery())
	api.SetupRoutes(router, cfg.JWT.Secret, api.Dependencies{
		AuthService:     authService,
		StudentService:  service.NewStudentService(docStore),
		ScheduleService: scheduleService,
		KioskService:    service.NewKioskService(docStore, scheduleService, loc),
		ClinicalService: service.NewClinicalService(docStore),
		BackupService:   backupService,
		SettingsService: service.NewSettingsService(docStore),
		BillingService:  service.NewBillingService(docStore),
		ReportService:   service.NewReportService(docStore),
		Events:          docStore,
		Gatherer:        registry,
		Location:        loc,
	})

	bgCtx, stopBackground := context.WithCancel(context.Background())
	go backupService.RunAutoBackups(bgCtx, cfg.Backup.Interval)

	// --- Start HTTP Server ---
	// No WriteTimeout: the events stream holds the response open.
	server := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	stopBackground()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("ERROR: Server forced to shutdown: %v", err)
	}
	if err := docStore.Close(); err != nil {
		log.Printf("ERROR: Failed to close document store: %v", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("ERROR: Failed to close Redis client: %v", err)
		}
	}

	log.Println("Server exiting.")
}

// newBackend selects the primary document backend from storage.driver.
func newBackend(cfg config.Config) (repository.DocumentBackend, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		return sqlstore.NewSQLite(cfg.Storage.SQLitePath), nil
	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			return nil, errors.New("storage.postgres_dsn is required for the postgres driver")
		}
		return sqlstore.NewPostgres(cfg.Storage.PostgresDSN), nil
	case "mongo":
		return mongo.NewDocumentBackend(cfg.Database.URI, cfg.Database.Name), nil
	case "memory":
		log.Println("WARN: Using the in-memory backend, data is lost on exit.")
		return memory.NewBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
