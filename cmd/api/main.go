package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/sukritx/roommatebase/internal/api/http"
	"github.com/sukritx/roommatebase/internal/api/http/handlers"
	"github.com/sukritx/roommatebase/internal/auth"
	"github.com/sukritx/roommatebase/internal/config"
	"github.com/sukritx/roommatebase/internal/events"
	"github.com/sukritx/roommatebase/internal/observability"
	"github.com/sukritx/roommatebase/internal/payment"
	"github.com/sukritx/roommatebase/internal/persistence"
	"github.com/sukritx/roommatebase/internal/repository"
	"github.com/sukritx/roommatebase/internal/repository/memory"
	"github.com/sukritx/roommatebase/internal/service"
	"github.com/sukritx/roommatebase/internal/storage"
	"github.com/sukritx/roommatebase/internal/validation"
	"github.com/sukritx/roommatebase/internal/worker"
)

type stores struct {
	users     repository.UserRepository
	rooms     repository.RoomRepository
	inquiries repository.InquiryRepository
	favorites repository.FavoriteRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	repos := buildStores(pg)

	var ledger repository.EventLedger
	if redis.Enabled() {
		ledger = repository.NewRedisEventLedger(redis.Client, cfg.Redis.EventTTL())
	} else {
		ledger = repository.NewMemoryEventLedger(cfg.Redis.EventTTL())
	}

	var assets storage.AssetStore
	if cfg.Storage.Configured() {
		assets = storage.NewSupabaseStore(cfg.Storage, logger)
	} else {
		logger.Warn("SUPABASE_URL not provided; room images kept in memory")
		assets = storage.NewMemoryStore("memory://" + cfg.Storage.Bucket)
	}

	if cfg.Payment.StripeSecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY not provided; room creation will fail at checkout")
	}
	gateway := payment.NewStripeGateway(cfg.Payment, logger)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	validator := validation.New()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	authService := service.NewAuthService(cfg.Auth, repos.users, tokens, validator)
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:     repos.users,
		RoomRepo:     repos.rooms,
		FavoriteRepo: repos.favorites,
		Validator:    validator,
	})
	roomService := service.NewRoomService(*cfg, service.RoomDependencies{
		RoomRepo:   repos.rooms,
		Gateway:    gateway,
		Assets:     assets,
		Dispatcher: dispatcher,
		Validator:  validator,
		Logger:     logger,
	})
	inquiryService := service.NewInquiryService(service.InquiryDependencies{
		InquiryRepo: repos.inquiries,
		RoomRepo:    repos.rooms,
		Dispatcher:  dispatcher,
		Validator:   validator,
	})
	paymentService := service.NewPaymentService(service.PaymentDependencies{
		RoomRepo:   repos.rooms,
		Gateway:    gateway,
		Ledger:     ledger,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	worker.StartActivityWorker(service.NewActivityService(dispatcher, logger, metrics))

	app := httptransport.NewApp(cfg.App)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Users:          handlers.NewUsersHandler(authService, userService),
		Rooms:          handlers.NewRoomsHandler(roomService, inquiryService),
		Inquiries:      handlers.NewInquiriesHandler(inquiryService),
		Payments:       handlers.NewPaymentsHandler(paymentService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, repos.users),
		WriteLimiter:   httptransport.RateLimit(cfg.RateLimit),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func buildStores(pg *persistence.Postgres) stores {
	if !pg.Enabled() {
		store := memory.NewStore()
		return stores{
			users:     store.Users(),
			rooms:     store.Rooms(),
			inquiries: store.Inquiries(),
			favorites: store.Favorites(),
		}
	}
	return stores{
		users:     repository.NewUserRepository(pg.Pool),
		rooms:     repository.NewRoomRepository(pg.Pool),
		inquiries: repository.NewInquiryRepository(pg.Pool),
		favorites: repository.NewFavoriteRepository(pg.Pool),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
