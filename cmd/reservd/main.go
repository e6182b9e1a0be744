package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"reservd/internal/app/commands"
	"reservd/internal/app/dto"
	reservationapp "reservd/internal/app/handlers/reservation"
	"reservd/internal/app/middleware"
	"reservd/internal/app/notify"
	appoutbox "reservd/internal/app/outbox"
	"reservd/internal/app/policies"
	"reservd/internal/app/queries"
	"reservd/internal/app/schedule"
	"reservd/internal/app/uow"
	"reservd/internal/domain/rates"
	domainresource "reservd/internal/domain/resource"
	"reservd/internal/domain/shared/money"
	kafkabroker "reservd/internal/infra/broker/kafka"
	"reservd/internal/infra/config"
	mongodb "reservd/internal/infra/db/mongo"
	ginserver "reservd/internal/infra/http/gin"
	infranotify "reservd/internal/infra/notify"
	"reservd/internal/infra/obs"
	infraoutbox "reservd/internal/infra/outbox"
	"reservd/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	if app.resources != nil {
		fixturesPath := getenv("RESOURCE_FIXTURES", "")
		if fixturesPath == "" {
			fixturesPath = defaultResourceFixturesPath()
		}
		if err := app.loadResourceFixtures(ctx, fixturesPath, logger); err != nil {
			logger.Warn("resource fixtures load failed", "error", err, "path", fixturesPath)
		}
	}

	go func() {
		if err := app.completer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("completion sweeper stopped", "error", err)
		}
	}()
	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers  ginserver.Handlers
	completer *schedule.Completer
	worker    *infraoutbox.Worker
	producer  *kafkabroker.Producer
	effects   *notify.Dispatcher
	ready     func() error

	// resources is non-nil in memory mode only; the Mongo catalog is
	// populated by the catalog subsystem, not by this process.
	resources *memory.ResourceRepository
}

func buildApplication(cfg config.Config, logger *slog.Logger) (application, error) {
	var (
		uowFactory  uow.UoWFactory
		outboxStore appoutbox.Outbox
		idStore     middleware.IdempotencyStore
		app         application
	)

	switch cfg.StorageMode {
	case config.StorageMongo:
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, fmt.Errorf("connect mongo: %w", err)
		}
		store := infraoutbox.NewStore(client.DB)
		uowFactory = mongodb.Factory{
			DB:               client.DB,
			ResourcesRepo:    mongodb.NewResourceRepository(client.DB),
			ReservationsRepo: mongodb.NewReservationRepository(client.DB),
		}
		outboxStore = store
		idStore = mongodb.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		app.ready = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(ctx)
		}

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafkabroker.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return application{}, fmt.Errorf("connect kafka: %w", err)
			}
			hostname, _ := os.Hostname()
			app.producer = producer
			app.worker = &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				ID:          hostname,
				Backoff:     cfg.RetryBackoff,
			}
		}
	default:
		resourcesRepo := memory.NewResourceRepository()
		reservationsRepo := memory.NewReservationRepository()
		reservationsRepo.LockTimeout = cfg.CreateLockTimeout
		uowFactory = memory.Factory{
			ResourcesRepo:    resourcesRepo,
			ReservationsRepo: reservationsRepo,
		}
		outboxStore = memory.NewOutbox()
		idStore = memory.NewIdempotencyStore()
		app.resources = resourcesRepo

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafkabroker.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return application{}, fmt.Errorf("connect kafka: %w", err)
			}
			app.producer = producer
		}
	}

	var notifier policies.Notifier = infranotify.LogNotifier{Logger: logger}
	if app.producer != nil {
		notifier = infranotify.KafkaNotifier{Producer: app.producer, Topic: cfg.KafkaTopicPrefix + "notification.events.v1"}
	}
	effects := &notify.Dispatcher{Notifier: notifier, Logger: logger}
	app.effects = effects

	calculator := rates.Calculator{ServiceFeeBps: cfg.ServiceFeeBps}
	encoder := appoutbox.JSONEventEncoder{}
	deps := reservationapp.NewTransitionDeps(uowFactory, outboxStore, encoder)

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, reservationapp.CreateReservationCommand{}.Key(), &reservationapp.CreateReservationHandler{
		UoWFactory: uowFactory,
		Calculator: calculator,
		Outbox:     outboxStore,
		Encoder:    encoder,
		Effects:    effects,
	})
	commands.RegisterHandler(commandBus, reservationapp.ConfirmReservationCommand{}.Key(), &reservationapp.ConfirmReservationHandler{
		TransitionDeps: deps,
		Effects:        effects,
		Logger:         logger,
	})
	commands.RegisterHandler(commandBus, reservationapp.CancelReservationCommand{}.Key(), &reservationapp.CancelReservationHandler{
		TransitionDeps: deps,
		Effects:        effects,
		Logger:         logger,
	})
	commands.RegisterHandler(commandBus, reservationapp.CompleteReservationCommand{}.Key(), &reservationapp.CompleteReservationHandler{
		TransitionDeps: deps,
		Effects:        effects,
		Logger:         logger,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, reservationapp.QuotePriceQuery{}.Key(), &reservationapp.QuotePriceHandler{
		UoWFactory: uowFactory,
		Calculator: calculator,
	})
	queries.RegisterHandler(queryBus, reservationapp.CheckAvailabilityQuery{}.Key(), &reservationapp.CheckAvailabilityHandler{
		UoWFactory: uowFactory,
	})
	listHandler := &reservationapp.ListReservationsHandler{UoWFactory: uowFactory}
	queries.RegisterHandler(queryBus, reservationapp.ListByRequesterQuery{}.Key(),
		queries.HandlerFunc[reservationapp.ListByRequesterQuery, dto.ReservationCollection](listHandler.HandleByRequester))
	queries.RegisterHandler(queryBus, reservationapp.ListByOwnerQuery{}.Key(),
		queries.HandlerFunc[reservationapp.ListByOwnerQuery, dto.ReservationCollection](listHandler.HandleByOwner))

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	app.handlers = ginserver.Handlers{
		Reservation: ginserver.ReservationHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
	}
	app.completer = &schedule.Completer{
		UoWFactory: uowFactory,
		Commands:   commandBusWithMiddleware,
		Interval:   cfg.SweepInterval,
		BatchSize:  cfg.SweepBatchSize,
		Logger:     logger,
	}
	return app, nil
}

func (a application) close(logger *slog.Logger) {
	if a.effects != nil {
		a.effects.Wait()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			logger.Warn("kafka producer close failed", "error", err)
		}
	}
}

func (a application) loadResourceFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("resource fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("resource fixtures file empty", "path", path)
		return nil
	}

	var fixtures []resourceFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	for _, fx := range fixtures {
		res := &domainresource.Resource{
			ID:      domainresource.ID(fx.ID),
			OwnerID: fx.Owner,
			Title:   fx.Title,
			Rates: rates.Schedule{
				PricePerHour:    money.Money{Amount: fx.PricePerHour, Currency: fx.Currency},
				MinBookingHours: fx.MinBookingHours,
			},
		}
		if fx.PricePerDay > 0 {
			daily := money.Money{Amount: fx.PricePerDay, Currency: fx.Currency}
			res.Rates.PricePerDay = &daily
		}
		if err := res.Rates.Validate(); err != nil {
			logger.Error("fixture invalid", "resource_id", fx.ID, "error", err)
			continue
		}
		if err := a.resources.Save(ctx, res); err != nil {
			logger.Error("cannot store fixture resource", "resource_id", fx.ID, "error", err)
			continue
		}
		logger.Info("resource fixture imported", "resource_id", res.ID)
	}
	return nil
}

type resourceFixture struct {
	ID              string `json:"id"`
	Owner           string `json:"owner"`
	Title           string `json:"title"`
	Currency        string `json:"currency"`
	PricePerHour    int64  `json:"price_per_hour"`
	PricePerDay     int64  `json:"price_per_day"`
	MinBookingHours int    `json:"min_booking_hours"`
}

func defaultResourceFixturesPath() string {
	return filepath.Join("data", "resources.json")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
