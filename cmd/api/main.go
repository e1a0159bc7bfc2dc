package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"avtoprokat/internal/api"
	"avtoprokat/internal/config"
	"avtoprokat/internal/database"
	"avtoprokat/internal/domain"
	"avtoprokat/internal/events"
	"avtoprokat/internal/export"
	"avtoprokat/internal/logging"
	"avtoprokat/internal/metrics"
	"avtoprokat/internal/models"
	"avtoprokat/internal/notify"
	"avtoprokat/internal/repository"
	"avtoprokat/internal/service"
	"avtoprokat/internal/worker"
	"avtoprokat/internal/workflow"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	cars, err := loadCars(cfg, &logger)
	if err != nil {
		return err
	}

	db, err := initDatabase(cfg, cars, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	drafts := initDraftRepository(cfg, redisClient, &logger)

	bus := events.NewEventBus()

	notifier, err := notify.NewFromConfig(cfg.Notify, &logger)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram notifier init failed, continuing without notifications")
	}
	notifier.Attach(bus)

	submitter := workflow.NewSubmitter(db, db, db, bus, &logger)
	lifecycle := service.NewLifecycleManager(db, bus, &logger)
	invoices := service.NewInvoiceGenerator(models.InvoiceTaxRate)
	reviews := service.NewReviewGate(db, db, bus, &logger)
	exporter := export.NewExcelExporter(invoices, &logger)

	httpServer := api.NewHTTPServer(cfg.API, cfg.Booking, api.Deps{
		Cars:      db,
		Bookings:  db,
		Payments:  db,
		Drafts:    drafts,
		Submitter: submitter,
		Lifecycle: lifecycle,
		Invoices:  invoices,
		Reviews:   reviews,
		Exporter:  exporter,
	}, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	statusWorker := worker.NewStatusWorker(db, lifecycle,
		time.Duration(cfg.Booking.RefreshIntervalSeconds)*time.Second, &logger)
	go statusWorker.Start(ctx)

	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

// loadCars читает каталог машин. Отдельный файл каталога имеет приоритет
// над списком в основном конфиге.
func loadCars(cfg *config.Config, logger *zerolog.Logger) ([]models.Car, error) {
	carsPath := os.Getenv("CARS_PATH")
	if carsPath == "" {
		carsPath = "configs/cars.yaml"
	}

	carsData, err := os.ReadFile(carsPath)
	if err != nil {
		if len(cfg.Cars) > 0 {
			logger.Info().Str("cars_path", carsPath).Msg("cars catalog file not found, using config cars")
			return cfg.Cars, nil
		}
		logger.Error().Err(err).Str("cars_path", carsPath).Msg("read cars catalog")
		return nil, err
	}

	var catalog struct {
		Cars []models.Car `yaml:"cars"`
	}
	if err := yaml.Unmarshal(carsData, &catalog); err != nil {
		logger.Error().Err(err).Str("cars_path", carsPath).Msg("parse cars catalog")
		return nil, err
	}

	if err := config.ValidateCars(catalog.Cars); err != nil {
		return nil, fmt.Errorf("cars catalog validation failed: %w", err)
	}

	return catalog.Cars, nil
}

func initDatabase(cfg *config.Config, cars []models.Car, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	carPointers := make([]*models.Car, len(cars))
	for i := range cars {
		carPointers[i] = &cars[i]
	}
	db.SetCars(carPointers)
	return db, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)

	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initDraftRepository строит хранилище черновиков: Redis с резервом в
// памяти, либо только память, когда Redis не настроен.
func initDraftRepository(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.DraftRepository {
	memory := repository.NewMemoryDraftRepository()
	if redisClient == nil {
		logger.Warn().Msg("draft state is kept in memory only")
		return memory
	}

	ttl := time.Duration(cfg.Booking.DraftTTLSeconds) * time.Second
	primary := repository.NewRedisDraftRepository(redisClient, ttl)
	return repository.NewFailoverDraftRepository(primary, memory, logger)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
