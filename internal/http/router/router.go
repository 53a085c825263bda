package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"github.com/ignatzorin/labour-market/internal/config"
	"github.com/ignatzorin/labour-market/internal/domain/repository"
	"github.com/ignatzorin/labour-market/internal/domain/valueobject"
	"github.com/ignatzorin/labour-market/internal/http/middleware"
	"github.com/ignatzorin/labour-market/internal/interface/http/handler"
	"github.com/ignatzorin/labour-market/internal/service"
)

// Handlers собирает все обработчики, которые регистрирует роутер.
type Handlers struct {
	Health     *handler.HealthHandler
	Jobs       *handler.JobHandler
	Bids       *handler.BidHandler
	Wallet     *handler.WalletHandler
	Moderation *handler.ModerationHandler
	Account    *handler.AccountHandler
}

func SetupRouter(
	cfg *config.Config,
	h Handlers,
	tokens *service.TokenManager,
	users repository.UserRepository,
	limiterStore limiter.Store,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.ErrorHandler())

	r.GET("/health", h.Health.Health)

	api := r.Group("/api")

	// Публичные маршруты
	api.GET("/jobs", h.Jobs.List)
	api.GET("/jobs/:id", middleware.UUIDValidator("id"), h.Jobs.Get)

	auth := middleware.AuthMiddleware(tokens, users)
	// Лимит считается по пользователю, поэтому ставится после авторизации.
	limit := middleware.RateLimitMiddleware(limiterStore, cfg.RateLimitLimit, cfg.RateLimitPeriod)
	synced := middleware.RequireSynced()

	protected := api.Group("/")
	protected.Use(auth)
	{
		protected.POST("/auth/sync", limit, h.Account.Sync)
		protected.GET("/profile", h.Account.Profile)

		protected.POST("/jobs", limit, synced, h.Jobs.Create)
		protected.POST("/jobs/:id/complete", limit, synced, middleware.UUIDValidator("id"), h.Jobs.Complete)
		protected.POST("/jobs/:id/cancel", limit, synced, middleware.UUIDValidator("id"), h.Jobs.Cancel)

		protected.GET("/jobs/:id/bids", middleware.UUIDValidator("id"), h.Bids.ListForJob)
		protected.POST("/jobs/:id/bids", limit, synced, middleware.UUIDValidator("id"), h.Bids.Submit)
		protected.POST("/jobs/:id/bids/:bidId/accept", limit, synced, middleware.UUIDValidator("id", "bidId"), h.Bids.Accept)
		protected.POST("/bids/:bidId/withdraw", limit, synced, middleware.UUIDValidator("bidId"), h.Bids.Withdraw)
		protected.GET("/bids/my", h.Bids.ListMine)

		protected.GET("/wallet", h.Wallet.Get)
		protected.GET("/wallet/transactions", h.Wallet.Transactions)
		protected.POST("/wallet/credit", limit, synced, h.Wallet.Own("credit"))
		protected.POST("/wallet/debit", limit, synced, h.Wallet.Own("debit"))

		protected.POST("/reports", limit, synced, h.Moderation.CreateReport)
		protected.GET("/reports/my", h.Moderation.MyReports)

		protected.GET("/notifications", h.Account.Notifications)
		protected.GET("/notifications/unread/count", h.Account.UnreadCount)
		protected.PUT("/notifications/read-all", h.Account.MarkAllRead)
		protected.PUT("/notifications/:id/read", middleware.UUIDValidator("id"), h.Account.MarkRead)
	}

	admin := api.Group("/admin")
	admin.Use(auth, synced, middleware.RequireRole(valueobject.ModeratorRoles...))
	{
		ledgerOps := admin.Group("/ledger/:userId", middleware.UUIDValidator("userId"))
		for _, op := range []string{"credit", "debit", "hold", "release", "refund"} {
			ledgerOps.POST("/"+op, h.Wallet.Admin(op))
		}
		ledgerOps.GET("/reconcile", h.Wallet.Reconcile)

		admin.GET("/reports", h.Moderation.ListReports)
		admin.POST("/reports/:id/resolve", middleware.UUIDValidator("id"), h.Moderation.ResolveReport)

		admin.POST("/users/:id/ban", middleware.UUIDValidator("id"), h.Moderation.Ban)
		admin.POST("/users/:id/unban", middleware.UUIDValidator("id"), h.Moderation.Unban)
	}

	return r
}
