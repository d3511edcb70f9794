// Gem Checkout — сервис витрины внешнего каталога камней.
// Материализует позиции поискового каталога в товары торговой платформы
// и оркестрирует оплату заказов в рассрочку через депозитные сессии.
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
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"example.com/gem-checkout/internal/cache"
	"example.com/gem-checkout/internal/catalog"
	"example.com/gem-checkout/internal/handler"
	"example.com/gem-checkout/internal/platform"
	"example.com/gem-checkout/internal/repository"
	"example.com/gem-checkout/internal/service"
	"example.com/gem-checkout/pkg/config"
	"example.com/gem-checkout/pkg/db"
	"example.com/gem-checkout/pkg/kafka"
	"example.com/gem-checkout/pkg/logger"
	"example.com/gem-checkout/pkg/metrics"
	"example.com/gem-checkout/pkg/outbox"
	"example.com/gem-checkout/pkg/tracing"
)

// aggregateType — тип агрегата в таблице outbox.
const aggregateType = "deposit_session"

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Pretty: cfg.App.LogPretty,
	})

	log := logger.With().Str("service", cfg.App.Name).Logger()

	log.Info().
		Str("env", cfg.App.Env).
		Int("port", cfg.HTTP.Port).
		Msg("Запуск Gem Checkout")

	// Distributed tracing (Jaeger)
	shutdownTracer, err := tracing.InitTracer(tracing.Config{
		ServiceName:    cfg.App.Name,
		JaegerEndpoint: cfg.Jaeger.OTLPEndpoint(),
		Enabled:        cfg.Jaeger.Enabled,
		Environment:    cfg.App.Env,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Ошибка инициализации tracing")
	}

	// Подключаемся к MySQL
	gormDB, err := db.ConnectMySQL(cfg.MySQL, cfg.IsDevelopment())
	if err != nil {
		log.Fatal().Err(err).Msg("Ошибка подключения к MySQL")
	}
	log.Info().Msg("Подключение к MySQL установлено")

	// Кэш материализаций: память процесса или общий Redis
	materializations := buildCache(cfg, log)

	// Корневой контекст фоновых задач
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Kafka producer + Outbox Worker: доставка событий депозитных сессий
	outboxRepo := outbox.NewOutboxRepository(gormDB, aggregateType)
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(kafka.Config{Brokers: cfg.Kafka.Brokers})
		if err != nil {
			log.Fatal().Err(err).Msg("Ошибка создания Kafka producer")
		}
		defer func() {
			if err := producer.Close(); err != nil {
				log.Error().Err(err).Msg("Ошибка закрытия Kafka producer")
			}
		}()

		worker := outbox.NewOutboxWorker(outboxRepo, producer, outbox.DefaultWorkerConfig(), "deposit-sessions")
		go worker.Run(ctx)
	} else {
		log.Warn().Msg("Kafka отключена, события депозитных сессий останутся в outbox")
	}

	// Клиенты торговой платформы
	adminClient := platform.NewAdminClient(platform.ClientConfig{
		BaseURL: cfg.Platform.AdminURL,
		Token:   cfg.Platform.AdminToken,
		Timeout: cfg.Platform.Timeout,
	})
	storefrontClient := platform.NewStorefrontClient(platform.ClientConfig{
		BaseURL: cfg.Platform.StorefrontURL,
		Token:   cfg.Platform.StorefrontToken,
		Timeout: cfg.Platform.Timeout,
	})

	// Клиент поискового сервиса каталога
	searchClient := catalog.NewSearchClient(catalog.ClientConfig{
		BaseURL: cfg.Catalog.URL,
		APIKey:  cfg.Catalog.APIKey,
		Timeout: cfg.Catalog.Timeout,
	})

	// Репозитории
	planRepo := repository.NewPlanRepository(gormDB)
	sessionRepo := repository.NewSessionRepository(gormDB)
	cartRepo := repository.NewCartRepository(gormDB, uuid.NewString)
	stoneRepo := repository.NewStoneRepository(gormDB)

	// Сервисы
	materializer := service.NewMaterializer(adminClient, materializations, stoneRepo, service.MaterializerConfig{
		SalesChannelID: cfg.Platform.SalesChannelID,
	})
	bridge := service.NewCartBridge(storefrontClient)
	depositService := service.NewDepositService(planRepo, sessionRepo, cartRepo, adminClient, bridge, service.DepositConfig{
		PaymentProductTitle: cfg.Platform.PaymentProductTitle,
	})

	// HTTP роутер
	router := handler.NewRouter(handler.RouterConfig{
		Cart:           handler.NewCartHandler(searchClient, materializer, bridge, cartRepo, cfg.Catalog.Collection),
		Deposit:        handler.NewDepositHandler(depositService),
		Plan:           handler.NewPlanHandler(planRepo),
		ReadinessCheck: readinessCheck(gormDB),
		Debug:          cfg.IsDevelopment(),
	})

	// Metrics server (отдельный порт для Prometheus)
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Addr(), cfg.App.Name,
			metrics.WithReadinessCheck(readinessCheck(gormDB)))
		go func() {
			if err := metricsServer.Start(); err != nil {
				log.Error().Err(err).Msg("Ошибка Metrics Server")
			}
		}()
	}

	// HTTP сервер
	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP сервер запущен")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Ошибка HTTP сервера")
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Получен сигнал завершения, останавливаем сервер...")

	// Останавливаем фоновые задачи (outbox worker)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Ошибка остановки HTTP сервера")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Ошибка остановки Metrics Server")
		}
	}

	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Ошибка остановки tracing")
	}

	// Закрываем подключение к MySQL
	if sqlDB, err := gormDB.DB(); err == nil && sqlDB != nil {
		if err := sqlDB.Close(); err != nil {
			log.Error().Err(err).Msg("Ошибка закрытия MySQL")
		}
	}

	log.Info().Msg("Gem Checkout остановлен")
}

// buildCache выбирает реализацию кэша материализации по конфигурации.
func buildCache(cfg *config.Config, log zerolog.Logger) cache.Materializations {
	if cfg.Cache.Backend == "redis" {
		client := db.ConnectRedis(cfg.Redis)
		log.Info().Str("addr", cfg.Redis.Addr()).Msg("Кэш материализаций: Redis")
		return cache.NewRedis(client)
	}

	log.Info().Msg("Кэш материализаций: память процесса")
	return cache.NewMemory()
}

// readinessCheck возвращает проверку готовности: сервис готов,
// когда доступна база данных.
func readinessCheck(gormDB *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := gormDB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
