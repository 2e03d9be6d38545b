package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"price-estimation-service/internal/adapters/csvsource"
	logger_adapter "price-estimation-service/internal/adapters/logger"
	postgres_adapter "price-estimation-service/internal/adapters/postgres"
	rabbitmq_adapter "price-estimation-service/internal/adapters/rabbitmq"
	"price-estimation-service/internal/adapters/rest"
	"price-estimation-service/internal/configs"
	"price-estimation-service/internal/constants"
	"price-estimation-service/internal/contextkeys"
	"price-estimation-service/internal/core/domain"
	"price-estimation-service/internal/core/estimator"
	"price-estimation-service/internal/core/port"
	"price-estimation-service/internal/core/usecase"
	fluentlogger "price-estimation-service/pkg/fluent_logger"
	"price-estimation-service/pkg/postgres"
	"price-estimation-service/pkg/rabbitmq/rabbitmq_common"
	"price-estimation-service/pkg/rabbitmq/rabbitmq_consumer"
	"price-estimation-service/pkg/rabbitmq/rabbitmq_producer"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	initialTrainingTimeout = 5 * time.Minute
	shutdownTimeout        = 15 * time.Second
)

type App struct {
	config       *configs.AppConfig
	dbPool       *pgxpool.Pool
	apiServer    *rest.Server
	fluentClient *fluent.Fluent
	connManager  *rabbitmq_common.ConnectionManager
	logger       port.LoggerPort

	retrainListener  port.EventListenerPort
	resultsPublisher *rabbitmq_producer.Publisher
}

// NewApp - точка сборки: создает все зависимости и обучает первую модель.
// Недоступный источник данных при старте - фатальная ошибка.
func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	app := &App{config: appConfig}

	baseLogger, err := app.initLoggers()
	if err != nil {
		return nil, err
	}
	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	app.logger = appLogger

	// дальше при ошибке освобождаем уже созданное
	ok := false
	defer func() {
		if !ok {
			app.closeResources()
		}
	}()

	// --- Исходящие адаптеры ---
	var runsRepo port.TrainingRunRepositoryPort
	if appConfig.Data.DatabaseURL != "" {
		dbPool, err := postgres.NewClient(context.Background(), postgres.Config{
			DatabaseURL:    appConfig.Data.DatabaseURL,
			ConnectTimeout: 10 * time.Second,
		})
		if err != nil {
			appLogger.Error("Failed to connect to PostgreSQL", err, nil)
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		app.dbPool = dbPool
		appLogger.Info("Successfully connected to PostgreSQL pool", nil)

		repo, err := postgres_adapter.NewTrainingRunRepository(dbPool)
		if err != nil {
			return nil, fmt.Errorf("failed to create training run repository: %w", err)
		}
		if err := repo.EnsureSchema(context.Background()); err != nil {
			appLogger.Error("Failed to prepare model_training_runs table", err, nil)
			return nil, err
		}
		runsRepo = repo
	}

	var source port.ListingSourcePort
	switch appConfig.Data.Source {
	case configs.DataSourcePostgres:
		pgSource, err := postgres_adapter.NewListingSource(app.dbPool)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres listing source: %w", err)
		}
		source = pgSource
	default:
		source = csvsource.NewListingSource(appConfig.Data.CSVPath)
	}
	appLogger.Info("Listing source configured", port.Fields{"source": source.Name()})

	var reporter port.TrainingReporterPort
	if appConfig.RabbitMQ.Enabled {
		r, err := app.initRabbitMQ(baseLogger)
		if err != nil {
			return nil, err
		}
		reporter = r
	}

	// --- Use cases ---
	trainCfg := estimator.TrainConfig{
		MinLocationCount: appConfig.Model.MinLocationCount,
		Binning:          domain.BinningMode(appConfig.Model.Binning),
		TestSize:         appConfig.Model.TestSize,
		Seed:             appConfig.Model.SplitSeed,
	}
	trainUseCase := usecase.NewTrainModelUseCase(source, runsRepo, trainCfg)
	models := usecase.NewModelProvider(trainUseCase)

	estimateUseCase := usecase.NewEstimatePriceUseCase(models)
	cleanUseCase := usecase.NewCleanListingsUseCase()
	modelInfoUseCase := usecase.NewGetModelInfoUseCase(models, runsRepo)
	retrainUseCase := usecase.NewRetrainModelUseCase(models, reporter)

	trainCtx, cancel := context.WithTimeout(contextkeys.ContextWithLogger(context.Background(), baseLogger), initialTrainingTimeout)
	defer cancel()
	if _, err := models.Get(trainCtx); err != nil {
		appLogger.Error("Initial model training failed", err, nil)
		return nil, fmt.Errorf("initial model training failed: %w", err)
	}

	// --- Входящие адаптеры ---
	if appConfig.RabbitMQ.Enabled {
		listener, err := rabbitmq_adapter.NewRetrainConsumerAdapter(retrainConsumerConfig(appConfig), retrainUseCase, baseLogger, app.connManager)
		if err != nil {
			appLogger.Error("Failed to create retrain command listener", err, nil)
			return nil, err
		}
		app.retrainListener = listener
		appLogger.Info("Retrain command listener initialized", nil)
	}

	handlers := rest.NewEstimationHandlers(estimateUseCase, cleanUseCase, modelInfoUseCase, retrainUseCase, models)
	app.apiServer = rest.NewServer(appConfig.Rest.Port, handlers, baseLogger, appConfig.Rest.CORSAllowedOrigins)
	appLogger.Info("REST API server configured", nil)

	ok = true
	return app, nil
}

func (a *App) initLoggers() (port.LoggerPort, error) {
	cfg := a.config

	var activeLoggers []port.LoggerPort

	stdoutLevel, known := logger_adapter.ParseLevel(cfg.StdoutLogger.Level)
	if !known {
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", cfg.StdoutLogger.Level)
	}
	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Level:    stdoutLevel,
		UseColor: true,
	})
	activeLoggers = append(activeLoggers, stdoutLogger)

	if cfg.FluentBit.Enabled {
		fluentClient, err := fluentlogger.NewClient(fluentlogger.Config{
			Host: cfg.FluentBit.Host,
			Port: cfg.FluentBit.Port,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentLevel, _ := logger_adapter.ParseLevel(cfg.FluentBit.Level)
		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, cfg.AppName, fluentLevel)
		if err != nil {
			_ = fluentClient.Close()
			return nil, err
		}
		a.fluentClient = fluentClient
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiLoggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	baseLogger := multiLogger.WithFields(port.Fields{"service_name": cfg.AppName})
	baseLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers),
		"fluent_enabled": cfg.FluentBit.Enabled,
	})
	return baseLogger, nil
}

func (a *App) initRabbitMQ(baseLogger port.LoggerPort) (*rabbitmq_adapter.TrainingReporterAdapter, error) {
	connManager, err := rabbitmq_common.NewConnectionManager(
		rabbitmq_common.Config{URL: a.config.RabbitMQ.URL},
		rabbitmq_adapter.NewPkgLoggerBridge(baseLogger.WithFields(port.Fields{"component": "rabbitmq_conn_manager"})),
	)
	if err != nil {
		a.logger.Error("Failed to create connection manager", err, nil)
		return nil, fmt.Errorf("failed to create connection manager: %w", err)
	}
	a.connManager = connManager

	publisher, err := rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
		Config:                   rabbitmq_common.Config{URL: a.config.RabbitMQ.URL},
		ExchangeName:             constants.ModelExchange,
		ExchangeType:             "direct",
		Durable:                  true,
		DeclareExchangeIfMissing: true,
		Logger:                   rabbitmq_adapter.NewPkgLoggerBridge(baseLogger.WithFields(port.Fields{"component": "rabbitmq_producer"})),
	}, connManager)
	if err != nil {
		a.logger.Error("Failed to create event producer", err, nil)
		return nil, fmt.Errorf("failed to create event producer: %w", err)
	}
	a.resultsPublisher = publisher

	reporter, err := rabbitmq_adapter.NewTrainingReporterAdapter(publisher, constants.RoutingKeyTrainingResults)
	if err != nil {
		return nil, err
	}
	a.logger.Info("RabbitMQ adapters initialized", nil)
	return reporter, nil
}

func retrainConsumerConfig(cfg *configs.AppConfig) rabbitmq_consumer.ConsumerConfig {
	return rabbitmq_consumer.ConsumerConfig{
		Config:                 rabbitmq_common.Config{URL: cfg.RabbitMQ.URL},
		QueueName:              constants.QueueRetrainCommands,
		DeclareQueue:           true,
		DurableQueue:           true,
		ExchangeNameForBind:    constants.ModelExchange,
		DeclareExchangeForBind: true,
		ExchangeTypeForBind:    "direct",
		RoutingKeyForBind:      constants.RoutingKeyRetrainCommands,
		PrefetchCount:          1,
		ConsumerTag:            cfg.AppName + "-retrain",
		MaxInFlight:            1,

		EnableRetryMechanism: true,
		RetryExchange:        constants.QueueRetrainCommands + "_retry_ex",
		RetryQueue:           constants.QueueRetrainCommands + "_retry_wait_30s",
		RetryTTL:             30000,
		FinalDLXExchange:     constants.FinalDLXExchange,
		FinalDLQ:             constants.FinalDLQ,
		FinalDLQRoutingKey:   constants.FinalDLQRoutingKey,
		MaxRetries:           3,
	}
}

// Run работает до сигнала ОС или отказа одного из компонентов
func (a *App) Run() error {
	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	var wg sync.WaitGroup
	errorsCh := make(chan error, 2)

	if a.retrainListener != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			listenerLogger := a.logger.WithFields(port.Fields{"listener_name": "Retrain Command Listener"})
			if err := a.retrainListener.Start(appCtx); err != nil {
				listenerLogger.Error("Listener stopped with an unexpected error", err, nil)
				errorsCh <- fmt.Errorf("retrain listener error: %w", err)
				return
			}
			listenerLogger.Info("Listener stopped gracefully", nil)
		}()
	}

	go func() {
		if err := a.apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorsCh <- fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	a.logger.Info("Application running. Waiting for signals or server error...", nil)

	var runErr error
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case err := <-errorsCh:
		a.logger.Error("A critical component failed, shutting down", err, nil)
		runErr = err
	}

	cancelApp()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.apiServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("Error during API server shutdown", err, nil)
	}

	wg.Wait()
	a.closeResources()
	return runErr
}

func (a *App) closeResources() {
	if a.retrainListener != nil {
		if err := a.retrainListener.Close(); err != nil {
			a.logger.Error("Error closing retrain listener", err, nil)
		}
	}
	if a.resultsPublisher != nil {
		if err := a.resultsPublisher.Close(); err != nil {
			a.logger.Error("Error closing event producer", err, nil)
		}
	}
	if a.connManager != nil {
		if err := a.connManager.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ connection", err, nil)
		}
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.logger.Info("PostgreSQL pool closed", nil)
	}

	if a.logger != nil {
		a.logger.Info("Application shut down", nil)
	}

	if a.fluentClient != nil {
		if err := a.fluentClient.Close(); err != nil {
			// fluent уже может быть недоступен
			fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
		}
	}
}
