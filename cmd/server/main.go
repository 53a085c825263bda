package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ignatzorin/labour-market/internal/config"
	"github.com/ignatzorin/labour-market/internal/db"
	"github.com/ignatzorin/labour-market/internal/domain/valueobject"
	"github.com/ignatzorin/labour-market/internal/logger"
	"github.com/ignatzorin/labour-market/internal/pkg/authz"
	"github.com/ignatzorin/labour-market/internal/service"
	"github.com/ignatzorin/labour-market/internal/usecase/ledger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "labour-market: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "labour-market",
		Short:         "Биржа заказов: задания, отклики, кошельки и модерация",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			logger.Init(cfg.LogLevel, cfg.IsProduction())
			return nil
		},
	}

	root.AddCommand(
		newServeCommand(&cfg),
		newMigrateCommand(&cfg),
		newTokenCommand(&cfg),
		newReconcileCommand(&cfg),
	)
	return root
}

func newServeCommand(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP сервер",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, *cfg)
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config) error {
	a, err := buildApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	}()

	logger.Log.WithField("port", cfg.HTTPPort).WithField("storage", cfg.StorageDriver).Info("main: HTTP сервер запущен")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("main: сервер завершился с ошибкой: %w", err)
	}
	return nil
}

func newMigrateCommand(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Применить SQL миграции и выйти",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			if c.StorageDriver != config.StorageDriverPostgres {
				return fmt.Errorf("migrate: миграции нужны только для %s", config.StorageDriverPostgres)
			}
			conn, err := db.NewPostgres(cmd.Context(), c.DatabaseURL, db.Options{Retries: c.DBConnectRetry, RetryDelay: c.DBRetryDelay})
			if err != nil {
				return err
			}
			defer safeClose(conn)
			return db.RunMigrations(cmd.Context(), conn, c.MigrationsPath)
		},
	}
}

func newTokenCommand(cfg **config.Config) *cobra.Command {
	var (
		userID string
		role   string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Выпустить access токен для локальной разработки",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			if c.IsProduction() {
				return errors.New("token: недоступно в production")
			}
			id := uuid.New()
			if userID != "" {
				parsed, err := uuid.Parse(userID)
				if err != nil {
					return fmt.Errorf("token: некорректный --user: %w", err)
				}
				id = parsed
			}
			r, err := valueobject.NewRole(role)
			if err != nil {
				return err
			}
			token, expires, err := service.NewTokenManager(c.JWTSecret, c.AccessTokenTTL).IssueAccess(id, r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user_id=%s\nrole=%s\nexpires_at=%s\n%s\n", id, r, expires.Format(time.RFC3339), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "id пользователя (по умолчанию новый)")
	cmd.Flags().StringVar(&role, "role", string(valueobject.RoleUser), "роль: user, vendor, admin, superadmin")
	return cmd
}

func newReconcileCommand(cfg **config.Config) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Сверить кэш кошелька с журналом операций",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("reconcile: некорректный --user: %w", err)
			}
			a, err := buildApp(cmd.Context(), *cfg, false)
			if err != nil {
				return err
			}
			defer a.Close()

			system := authz.Actor{UserID: uuid.Nil, Role: valueobject.RoleSuperAdmin}
			report, err := ledger.NewReconcileUseCase(a.store).Execute(cmd.Context(), system, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "account=%s transactions=%d\ncached   available=%s escrow=%s\nreplayed available=%s escrow=%s\nconsistent=%t\n",
				report.AccountID, report.Transactions,
				report.CachedAvailable, report.CachedEscrow,
				report.ReplayedAvailable, report.ReplayedEscrow,
				report.Consistent)
			if !report.Consistent {
				return errors.New("reconcile: обнаружено расхождение")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "id пользователя")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
