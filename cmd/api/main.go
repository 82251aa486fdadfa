package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"zapis/internal/api"
	"zapis/internal/booking"
	"zapis/internal/config"
	"zapis/internal/database"
	"zapis/internal/domain"
	"zapis/internal/events"
	"zapis/internal/google"
	"zapis/internal/logging"
	"zapis/internal/metrics"
	"zapis/internal/models"
	"zapis/internal/notify"
	"zapis/internal/verification"
	"zapis/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
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
	cfg, services, logger, closer, loadErr := loadConfigAndLogger()
	if loadErr != nil {
		return loadErr
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	loc, err := cfg.Booking.Location()
	if err != nil {
		return err
	}

	db, err := initDatabase(cfg, services, loc, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = verification.NewRedisClient(cfg.Redis)
		if err := verification.Ping(ctx, redisClient); err != nil {
			logger.Warn().Err(err).Msg("Redis недоступен, коды будут храниться в памяти")
		}
		defer redisClient.Close()
	}

	ledger := initLedger(cfg.Booking, redisClient, &logger)
	sms := initSMS(cfg, &logger)

	eventBus := events.NewEventBus()
	initTelegram(cfg, eventBus, &logger)

	sheetsService := initGoogleSheets(ctx, cfg, &logger)

	var syncer domain.SyncEnqueuer
	if sheetsService != nil {
		retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
		sheetsWorker := worker.NewSheetsWorker(db, sheetsService, redisClient, retryPolicy, &logger)
		go sheetsWorker.Start(ctx)
		syncer = sheetsWorker
	}

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(cfg.Monitoring.PrometheusPort, &logger)
	}

	engine := booking.NewEngine(db, ledger, sms, eventBus, syncer, cfg.Booking, loc, &logger)

	apiServer := api.NewHTTPServer(cfg.API, engine, &logger)
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error().Err(err).Msg("API server error")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return apiServer.Shutdown(shutdownCtx)
}

func loadConfigAndLogger() (*config.Config, []models.Service, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	services := cfg.Services

	// Каталог услуг можно держать отдельным файлом
	servicesPath := os.Getenv("SERVICES_PATH")
	if servicesPath == "" {
		servicesPath = "configs/services.yaml"
	}
	if data, err := os.ReadFile(servicesPath); err == nil {
		var catalog struct {
			Services []models.Service `yaml:"services"`
		}
		if err := yaml.Unmarshal(data, &catalog); err != nil {
			logger.Error().Err(err).Msgf("Ошибка парсинга %s", servicesPath)
			return nil, nil, zerolog.Logger{}, closer, err
		}
		services = catalog.Services
	}

	if err := config.ValidateServices(services); err != nil {
		logger.Error().Err(err).Msg("Services validation failed")
		return nil, nil, zerolog.Logger{}, closer, err
	}

	return cfg, services, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if cfg.Exports.Path != "" {
		if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
			logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
			return err
		}
	}
	return nil
}

func initDatabase(cfg *config.Config, services []models.Service, loc *time.Location, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, loc, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return nil, err
	}

	if err := db.SeedServices(context.Background(), services); err != nil {
		logger.Error().Err(err).Msg("Ошибка синхронизации каталога услуг")
	}
	return db, nil
}

// initLedger: redis с запасным хранилищем в памяти, либо только память.
func initLedger(cfg config.BookingConfig, redisClient *redis.Client, logger *zerolog.Logger) domain.CodeLedger {
	memory := verification.NewMemoryLedger(cfg.CodeLength, cfg.CodeTTL())
	if redisClient == nil {
		return memory
	}
	primary := verification.NewRedisLedger(redisClient, cfg.CodeLength, cfg.CodeTTL())
	return verification.NewFailoverLedger(primary, memory, logger)
}

func initSMS(cfg *config.Config, logger *zerolog.Logger) domain.SMSSender {
	if cfg.SMS.GatewayURL == "" {
		logger.Warn().Msg("SMS gateway не настроен, коды пишутся в лог")
		return notify.NewNoopSender(logger)
	}
	return notify.NewGatewaySender(cfg.SMS, logger)
}

func initTelegram(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) {
	if cfg.Telegram.BotToken == "" || cfg.Telegram.OwnerChatID == 0 {
		logger.Info().Msg("Telegram-уведомления отключены")
		return
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("Не удалось подключить Telegram-бота")
		return
	}

	notifier := notify.NewOwnerNotifier(bot, cfg.Telegram.OwnerChatID, logger)
	notifier.Subscribe(bus)
	logger.Info().Msg("Telegram-уведомления включены")
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.AppointmentsSpreadSheetID == "" {
		logger.Info().Msg("Google Sheets синхронизация отключена")
		return nil
	}

	sheetsSvc, err := google.NewSheetsService(cfg.Google.GoogleCredentialsFile, cfg.Google.AppointmentsSpreadSheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Google Sheets service")
		return nil
	}

	if err := sheetsSvc.TestConnection(ctx); err != nil {
		logger.Error().Err(err).Msg("Google Sheets connection test failed")
		return nil
	}

	logger.Info().Msg("Google Sheets service initialized successfully")
	return sheetsSvc
}

func startMetricsServer(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	logger.Info().Str("addr", addr).Msg("Metrics endpoint listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("Metrics server error")
	}
}
