package betmaker

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"betline/config"
	"betline/database"
	"betline/events"
	"betline/metrics"
	"betline/repository"
	"betline/service"
)

// Run initializes and starts the bet maker
func Run(ctx context.Context) error {
	log.Println("Starting bet maker...")

	cfg, err := config.Load(config.ServiceBetMaker)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Println("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()

	// Metrics
	metrics.Register()
	metrics.ObserveBus(eventBus)

	// Repositories
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	eventRepo := repository.NewEventRepository(db)
	betRepo := repository.NewBetRepository(db)

	client := NewLineClient(cfg.LineProviderURL, cfg.RequestTimeout, cfg.MaxConnectionRetries)

	// Services
	settlement := service.NewSettlementService(betRepo, eventBus, cfg.StorageTimeout)
	mirror := service.NewEventMirrorService(uowFactory, eventRepo, client, settlement, cfg.StorageTimeout)
	betService := service.NewBetService(uowFactory, mirror, cfg.StorageTimeout)

	// Optional Redis cache for the public events listing
	var cache *EventCache
	if cfg.RedisAddr != "" {
		redisClient, err := ConnectRedis(cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		cache = NewEventCache(redisClient, cfg.EventCacheTTL)
		log.Println("Redis event cache enabled")
	}

	// Streamed status changes when brokers are configured; polling always
	// runs as the fallback
	if len(cfg.KafkaBrokers) > 0 {
		consumer := NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, mirror)
		defer consumer.Close()
		go consumer.Run(ctx)
		log.Println("Kafka status change consumer started")
	}

	poller := NewPoller(client, mirror, cfg.PollInterval)
	go poller.Run(ctx)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: NewServer(betService, client, cache).Router(),
	}

	metricsSrv := metrics.StartServer(cfg.MetricsAddr, db.Healthy)
	log.Printf("Metrics server listening on %s", cfg.MetricsAddr)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Bet maker listening on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down bet maker...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down http server: %v", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down metrics server: %v", err)
	}

	log.Println("Shutdown completed")
	return nil
}
