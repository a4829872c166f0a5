package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	redisclient "github.com/redis/go-redis/v9"

	"roamly/internal/app/commands"
	bookingapp "roamly/internal/app/handlers/booking"
	catalogapp "roamly/internal/app/handlers/catalog"
	meapp "roamly/internal/app/handlers/me"
	"roamly/internal/app/middleware"
	appoutbox "roamly/internal/app/outbox"
	"roamly/internal/app/policies"
	"roamly/internal/app/queries"
	"roamly/internal/app/uow"
	domaincatalog "roamly/internal/domain/catalog"
	domainpricing "roamly/internal/domain/pricing"
	"roamly/internal/domain/shared/money"
	"roamly/internal/infra/broker/kafka"
	redisinfra "roamly/internal/infra/cache/redis"
	"roamly/internal/infra/config"
	mongodb "roamly/internal/infra/db/mongo"
	ginserver "roamly/internal/infra/http/gin"
	"roamly/internal/infra/identity"
	"roamly/internal/infra/obs"
	infraoutbox "roamly/internal/infra/outbox"
	"roamly/internal/infra/payments"
	"roamly/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	defer app.close()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	if err := loadCatalogFixtures(ctx, cfg.FixturesPath, app.seedItem, logger); err != nil {
		logger.Warn("catalog fixtures load failed", "error", err, "path", cfg.FixturesPath)
	}

	if app.runOutbox != nil {
		go func() {
			if err := app.runOutbox(ctx); err != nil && !errors.Is(err, context.Canceled) {
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
	seedItem  func(ctx context.Context, item *domaincatalog.Item) error
	ready     func() error
	runOutbox func(ctx context.Context) error
	close     func()
}

func buildApplication(cfg config.Config, logger *slog.Logger) (application, error) {
	app := application{
		ready: func() error { return nil },
		close: func() {},
	}

	pricingPolicy := domainpricing.Policy{
		OrderFee: money.Money{Amount: cfg.OrderFeeMinor, Currency: cfg.Currency},
	}
	idStore := buildIdempotencyStore(cfg, &app)
	paymentsPort := &payments.HTTPClient{
		Client:   &http.Client{Timeout: cfg.PaymentTimeout},
		Endpoint: cfg.PaymentEndpoint,
		Logger:   logger,
	}
	identityPort := buildIdentity(cfg)

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, err
		}
		catalogRepo := mongodb.NewCatalogRepository(client.DB)
		reservationRepo := mongodb.NewReservationRepository(client.DB)
		factory := mongodb.Factory{DB: client.DB, CatalogRepo: catalogRepo, ReservationRepo: reservationRepo}
		store := infraoutbox.NewStore(client.DB)

		app.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
		app.seedItem = func(ctx context.Context, item *domaincatalog.Item) error {
			return catalogRepo.Upsert(ctx, item)
		}

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return application{}, err
			}
			prevClose := app.close
			app.close = func() {
				_ = producer.Close()
				prevClose()
			}
			worker := &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
			}
			app.runOutbox = worker.Run
		} else {
			logger.Warn("kafka brokers not configured, outbox records will accumulate")
		}

		app.handlers = buildHandlers(factory, pricingPolicy, store, idStore, paymentsPort, identityPort, logger)
	default:
		catalogRepo := memory.NewCatalogRepository()
		reservationRepo := memory.NewReservationRepository()
		factory := memory.Factory{CatalogRepo: catalogRepo, ReservationRepo: reservationRepo}
		outboxStore := memory.NewOutbox()

		app.seedItem = func(ctx context.Context, item *domaincatalog.Item) error {
			return catalogRepo.Put(item)
		}
		app.handlers = buildHandlers(factory, pricingPolicy, outboxStore, idStore, paymentsPort, identityPort, logger)
	}

	return app, nil
}

func buildHandlers(
	factory uow.Factory,
	pricingPolicy domainpricing.Policy,
	outboxStore appoutbox.Outbox,
	idStore middleware.IdempotencyStore,
	paymentsPort policies.PaymentsPort,
	identityPort policies.IdentityPort,
	logger *slog.Logger,
) ginserver.Handlers {
	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commitHandler := &bookingapp.CommitReservationHandler{
		UoWFactory: factory,
		Pricing:    pricingPolicy,
		Outbox:     outboxStore,
		Encoder:    encoder,
		Logger:     logger,
	}
	commands.Register(commandBus, bookingapp.CommitReservationCommand{}.Key(), commitHandler)
	paymentHandler := &bookingapp.InitiatePaymentHandler{
		UoWFactory: factory,
		Payments:   paymentsPort,
		Outbox:     outboxStore,
		Encoder:    encoder,
	}
	commands.Register(commandBus, bookingapp.InitiatePaymentCommand{}.Key(), paymentHandler)
	cancelHandler := &bookingapp.CancelReservationHandler{
		UoWFactory: factory,
		Outbox:     outboxStore,
		Encoder:    encoder,
	}
	commands.Register(commandBus, bookingapp.CancelReservationCommand{}.Key(), cancelHandler)

	queryBus := queries.NewInMemoryBus()
	getItemHandler := &catalogapp.GetItemHandler{UoWFactory: factory}
	queries.Register(queryBus, catalogapp.GetItemQuery{}.Key(), getItemHandler)
	getQuoteHandler := &catalogapp.GetQuoteHandler{UoWFactory: factory, Pricing: pricingPolicy}
	queries.Register(queryBus, catalogapp.GetQuoteQuery{}.Key(), getQuoteHandler)
	listHandler := &meapp.ListReservationsHandler{UoWFactory: factory}
	queries.Register(queryBus, meapp.ListReservationsQuery{}.Key(), listHandler)

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(factory, nil),
	)

	return ginserver.Handlers{
		Booking: ginserver.BookingHandler{Commands: commandBusWithMiddleware},
		Catalog: ginserver.CatalogHandler{Queries: queryBus},
		Me:      ginserver.MeHandler{Queries: queryBus},
		AuthMiddleware: ginserver.AuthMiddleware{
			Identity: identityPort,
			Logger:   logger,
		}.Handle,
	}
}

func buildIdempotencyStore(cfg config.Config, app *application) middleware.IdempotencyStore {
	if cfg.RedisAddr == "" {
		return memory.NewIdempotencyStore()
	}
	client := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	prevClose := app.close
	app.close = func() {
		_ = client.Close()
		prevClose()
	}
	return redisinfra.NewIdempotencyStore(client, cfg.IdempotencyTTL)
}

// buildIdentity seeds the resolver from AUTH_TOKENS, a comma-separated
// list of token:user_id:email triples.
func buildIdentity(cfg config.Config) policies.IdentityPort {
	resolver := identity.NewTokenResolver()
	for _, raw := range strings.Split(cfg.AuthTokens, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.SplitN(raw, ":", 3)
		if len(parts) < 2 {
			continue
		}
		caller := policies.Caller{UserID: parts[1]}
		if len(parts) == 3 {
			caller.Email = parts[2]
		}
		resolver.Register(parts[0], caller)
	}
	return resolver
}
