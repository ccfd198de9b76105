package lineprovider

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"betline/config"
	"betline/database"
	"betline/events"
	"betline/metrics"
	"betline/models"
	"betline/repository"
	"betline/service"
)

// Run initializes and starts the line provider
func Run(ctx context.Context) error {
	log.Println("Starting line provider...")

	cfg, err := config.Load(config.ServiceLineProvider)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize the event store
	var store service.EventStore
	var db *database.DB
	switch cfg.EventStore {
	case config.EventStorePostgres:
		log.Println("Connecting to database...")
		db, err = database.NewConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		store = repository.NewPostgresEventStore(db)
		log.Println("Database connection established successfully")
	default:
		store = repository.NewMemoryEventStore()
		log.Println("Using in-memory event store")
	}

	// Initialize event bus
	eventBus := events.NewBus()

	// Metrics
	metrics.Register()
	metrics.ObserveBus(eventBus)

	// Bridge status changes onto Kafka when brokers are configured
	if len(cfg.KafkaBrokers) > 0 {
		publisher := NewPublisher(cfg.KafkaBrokers)
		defer publisher.Close()
		publisher.Attach(eventBus)
		log.Println("Kafka publisher attached")
	}

	eventService := service.NewEventService(store, eventBus, cfg.StorageTimeout)

	// The in-memory store starts empty; seed the demo line
	if cfg.EventStore == config.EventStoreMemory {
		seedEvents(ctx, eventService)
	}

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: NewServer(eventService).Router(),
	}

	metricsSrv := metrics.StartServer(cfg.MetricsAddr, func(ctx context.Context) error {
		if db != nil {
			return db.Healthy(ctx)
		}
		return nil
	})
	log.Printf("Metrics server listening on %s", cfg.MetricsAddr)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Line provider listening on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down line provider...")
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

// seedEvents loads the demo line served by a fresh in-memory store
func seedEvents(ctx context.Context, eventService service.EventService) {
	now := time.Now().Unix()
	seed := []*models.Event{
		{ID: 1, Coefficient: decimal.RequireFromString("1.20"), Deadline: now + 600, Status: models.EventStatusNew},
		{ID: 2, Coefficient: decimal.RequireFromString("1.15"), Deadline: now + 60, Status: models.EventStatusNew},
		{ID: 3, Coefficient: decimal.RequireFromString("1.67"), Deadline: now + 90, Status: models.EventStatusNew},
	}
	for _, event := range seed {
		if _, err := eventService.CreateEvent(ctx, event); err != nil {
			log.Printf("Failed to seed event %d: %v", event.ID, err)
		}
	}
}
