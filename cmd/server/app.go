package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/ignatzorin/labour-market/internal/config"
	"github.com/ignatzorin/labour-market/internal/db"
	"github.com/ignatzorin/labour-market/internal/domain/repository"
	"github.com/ignatzorin/labour-market/internal/http/middleware"
	httpRouter "github.com/ignatzorin/labour-market/internal/http/router"
	"github.com/ignatzorin/labour-market/internal/infrastructure/memory"
	"github.com/ignatzorin/labour-market/internal/infrastructure/persistence"
	"github.com/ignatzorin/labour-market/internal/interface/http/handler"
	"github.com/ignatzorin/labour-market/internal/logger"
	"github.com/ignatzorin/labour-market/internal/service"
	"github.com/ignatzorin/labour-market/internal/usecase/bid"
	"github.com/ignatzorin/labour-market/internal/usecase/job"
	"github.com/ignatzorin/labour-market/internal/usecase/ledger"
	"github.com/ignatzorin/labour-market/internal/usecase/notification"
	"github.com/ignatzorin/labour-market/internal/usecase/report"
	"github.com/ignatzorin/labour-market/internal/usecase/user"
)

// app держит собранные зависимости процесса.
type app struct {
	store   repository.Store
	engine  *gin.Engine
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp открывает хранилище и, если нужен HTTP, собирает роутер.
func buildApp(ctx context.Context, cfg *config.Config, withHTTP bool) (*app, error) {
	a := &app{}

	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		logger.Log.Warn("main: используется хранилище в памяти, данные не переживут рестарт")
		a.store = memory.NewStore()
	default:
		conn, err := db.NewPostgres(ctx, cfg.DatabaseURL, db.Options{Retries: cfg.DBConnectRetry, RetryDelay: cfg.DBRetryDelay})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { safeClose(conn) })
		if withHTTP {
			if err := db.RunMigrations(ctx, conn, cfg.MigrationsPath); err != nil {
				a.Close()
				return nil, err
			}
		}
		a.store = persistence.NewStore(conn)
	}

	if !withHTTP {
		return a, nil
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("main: некорректный REDIS_URL: %w", err)
		}
		redisClient = redis.NewClient(opts)
		a.closers = append(a.closers, func() {
			if err := redisClient.Close(); err != nil {
				logger.Log.WithError(err).Warn("main: ошибка закрытия redis")
			}
		})
	}
	limiterStore, err := middleware.NewLimiterStore(redisClient)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("main: хранилище лимитов: %w", err)
	}

	a.engine = httpRouter.SetupRouter(cfg, newHandlers(a.store, cfg), service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL), a.store.Users(), limiterStore)
	return a, nil
}

func newHandlers(store repository.Store, cfg *config.Config) httpRouter.Handlers {
	emitter := notification.NewEmitter(store.Notifications(), cfg.NotifyTimeout)

	operations := map[string]*ledger.OperationUseCase{
		"credit":  ledger.NewCreditUseCase(store, emitter),
		"debit":   ledger.NewDebitUseCase(store, emitter),
		"hold":    ledger.NewHoldUseCase(store, emitter),
		"release": ledger.NewReleaseUseCase(store, emitter),
		"refund":  ledger.NewRefundUseCase(store, emitter),
	}

	return httpRouter.Handlers{
		Health: handler.NewHealthHandler(store),
		Jobs: handler.NewJobHandler(
			job.NewCreateJobUseCase(store),
			job.NewGetJobUseCase(store.Jobs()),
			job.NewListJobsUseCase(store.Jobs()),
			job.NewCompleteJobUseCase(store, emitter),
			job.NewCancelJobUseCase(store, emitter),
		),
		Bids: handler.NewBidHandler(
			bid.NewSubmitBidUseCase(store, emitter),
			bid.NewAcceptBidUseCase(store, emitter),
			bid.NewWithdrawBidUseCase(store, emitter),
			bid.NewListJobBidsUseCase(store),
			bid.NewListVendorBidsUseCase(store.Bids()),
		),
		Wallet: handler.NewWalletHandler(
			ledger.NewGetAccountUseCase(store),
			ledger.NewListTransactionsUseCase(store),
			ledger.NewReconcileUseCase(store),
			operations,
		),
		Moderation: handler.NewModerationHandler(
			report.NewCreateReportUseCase(store),
			report.NewResolveReportUseCase(store, emitter),
			report.NewListReportsUseCase(store.Reports()),
			report.NewListMineUseCase(store.Reports()),
			user.NewBanUseCase(store, emitter),
			user.NewUnbanUseCase(store),
		),
		Account: handler.NewAccountHandler(
			user.NewSignInUseCase(store),
			user.NewGetProfileUseCase(store.Users()),
			notification.NewInbox(store.Notifications()),
		),
	}
}

// safeClose закрывает соединение с базой.
func safeClose(conn *sqlx.DB) {
	if err := conn.Close(); err != nil {
		logger.Log.WithError(err).Warn("main: ошибка закрытия базы")
	}
}
