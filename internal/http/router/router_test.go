package router_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/labour-market/internal/config"
	"github.com/ignatzorin/labour-market/internal/domain/entity"
	"github.com/ignatzorin/labour-market/internal/domain/repository"
	"github.com/ignatzorin/labour-market/internal/domain/valueobject"
	"github.com/ignatzorin/labour-market/internal/http/middleware"
	"github.com/ignatzorin/labour-market/internal/http/router"
	"github.com/ignatzorin/labour-market/internal/infrastructure/memory"
	"github.com/ignatzorin/labour-market/internal/interface/http/handler"
	"github.com/ignatzorin/labour-market/internal/service"
	"github.com/ignatzorin/labour-market/internal/usecase/bid"
	"github.com/ignatzorin/labour-market/internal/usecase/job"
	"github.com/ignatzorin/labour-market/internal/usecase/ledger"
	"github.com/ignatzorin/labour-market/internal/usecase/notification"
	"github.com/ignatzorin/labour-market/internal/usecase/report"
	"github.com/ignatzorin/labour-market/internal/usecase/user"
)

// syncNotifier сохраняет уведомления сразу, чтобы тест видел их без ожидания.
type syncNotifier struct {
	repo repository.NotificationRepository
}

func (n syncNotifier) Emit(ctx context.Context, notifications ...*entity.Notification) {
	for _, item := range notifications {
		_ = n.repo.Create(ctx, item)
	}
}

type testServer struct {
	engine *gin.Engine
	store  *memory.Store
	tokens *service.TokenManager
}

func newTestServer(t *testing.T, rateLimit int64) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	notifier := syncNotifier{repo: store.Notifications()}
	tokens := service.NewTokenManager("test-secret", time.Hour)
	limiterStore, err := middleware.NewLimiterStore(nil)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:             "test",
		AllowedOrigins:  []string{"http://localhost:3000"},
		RateLimitLimit:  rateLimit,
		RateLimitPeriod: time.Minute,
	}
	h := router.Handlers{
		Health: handler.NewHealthHandler(store),
		Jobs: handler.NewJobHandler(
			job.NewCreateJobUseCase(store),
			job.NewGetJobUseCase(store.Jobs()),
			job.NewListJobsUseCase(store.Jobs()),
			job.NewCompleteJobUseCase(store, notifier),
			job.NewCancelJobUseCase(store, notifier),
		),
		Bids: handler.NewBidHandler(
			bid.NewSubmitBidUseCase(store, notifier),
			bid.NewAcceptBidUseCase(store, notifier),
			bid.NewWithdrawBidUseCase(store, notifier),
			bid.NewListJobBidsUseCase(store),
			bid.NewListVendorBidsUseCase(store.Bids()),
		),
		Wallet: handler.NewWalletHandler(
			ledger.NewGetAccountUseCase(store),
			ledger.NewListTransactionsUseCase(store),
			ledger.NewReconcileUseCase(store),
			map[string]*ledger.OperationUseCase{
				"credit":  ledger.NewCreditUseCase(store, notifier),
				"debit":   ledger.NewDebitUseCase(store, notifier),
				"hold":    ledger.NewHoldUseCase(store, notifier),
				"release": ledger.NewReleaseUseCase(store, notifier),
				"refund":  ledger.NewRefundUseCase(store, notifier),
			},
		),
		Moderation: handler.NewModerationHandler(
			report.NewCreateReportUseCase(store),
			report.NewResolveReportUseCase(store, notifier),
			report.NewListReportsUseCase(store.Reports()),
			report.NewListMineUseCase(store.Reports()),
			user.NewBanUseCase(store, notifier),
			user.NewUnbanUseCase(store),
		),
		Account: handler.NewAccountHandler(
			user.NewSignInUseCase(store),
			user.NewGetProfileUseCase(store.Users()),
			notification.NewInbox(store.Notifications()),
		),
	}

	return &testServer{
		engine: router.SetupRouter(cfg, h, tokens, store.Users(), limiterStore),
		store:  store,
		tokens: tokens,
	}
}

func (s *testServer) token(t *testing.T, id uuid.UUID, role valueobject.Role) string {
	t.Helper()
	token, _, err := s.tokens.IssueAccess(id, role)
	require.NoError(t, err)
	return token
}

// register сохраняет пользователя с ролью, как после /api/auth/sync, и выдаёт ему токен.
func (s *testServer) register(t *testing.T, role valueobject.Role) (uuid.UUID, string) {
	t.Helper()
	u, err := entity.NewUserFromIdentity(entity.Identity{Email: uuid.NewString()[:8] + "@example.com"})
	require.NoError(t, err)
	u.Role = role
	require.NoError(t, s.store.WithinTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		return tx.CreateUser(ctx, u)
	}))
	return u.ID, s.token(t, u.ID, role)
}

// do выполняет запрос и возвращает код и поле data из ответа.
func (s *testServer) do(t *testing.T, method, path, token, body string) (int, json.RawMessage) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &envelope)
	return w.Code, envelope.Data
}

type idPayload struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type walletPayload struct {
	Available decimal.Decimal `json:"available_balance"`
	Escrow    decimal.Decimal `json:"escrow_balance"`
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestRouter_HireAndPayFlow(t *testing.T) {
	s := newTestServer(t, 1000)
	ownerID, vendorID := uuid.New(), uuid.New()
	owner := s.token(t, ownerID, valueobject.RoleUser)
	vendor := s.token(t, vendorID, valueobject.RoleVendor)

	code, _ := s.do(t, "POST", "/api/auth/sync", owner, `{"email":"owner@example.com"}`)
	require.Equal(t, http.StatusCreated, code)
	code, _ = s.do(t, "POST", "/api/auth/sync", vendor, `{"email":"vendor@example.com"}`)
	require.Equal(t, http.StatusCreated, code)

	code, raw := s.do(t, "POST", "/api/jobs", owner, `{"title":"Покраска забора","description":"Забор 20 метров, краска своя","category":"ремонт"}`)
	require.Equal(t, http.StatusCreated, code)
	created := decode[idPayload](t, raw)
	assert.Equal(t, "open", created.Status)

	code, _ = s.do(t, "POST", "/api/wallet/credit", owner, `{"amount":"500"}`)
	require.Equal(t, http.StatusOK, code)

	code, raw = s.do(t, "POST", "/api/jobs/"+created.ID.String()+"/bids", vendor, `{"amount":"300","message":"Сделаю за выходные"}`)
	require.Equal(t, http.StatusCreated, code)
	placed := decode[idPayload](t, raw)

	// Повторный отклик того же исполнителя.
	code, _ = s.do(t, "POST", "/api/jobs/"+created.ID.String()+"/bids", vendor, `{"amount":"250"}`)
	assert.Equal(t, http.StatusConflict, code)

	// Принять отклик может только владелец.
	code, _ = s.do(t, "POST", "/api/jobs/"+created.ID.String()+"/bids/"+placed.ID.String()+"/accept", vendor, "")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, "POST", "/api/jobs/"+created.ID.String()+"/bids/"+placed.ID.String()+"/accept", owner, "")
	require.Equal(t, http.StatusOK, code)

	code, raw = s.do(t, "GET", "/api/wallet", owner, "")
	require.Equal(t, http.StatusOK, code)
	wallet := decode[walletPayload](t, raw)
	assert.True(t, wallet.Available.Equal(decimal.NewFromInt(200)))
	assert.True(t, wallet.Escrow.Equal(decimal.NewFromInt(300)))

	code, raw = s.do(t, "GET", "/api/jobs/"+created.ID.String(), "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "in_progress", decode[idPayload](t, raw).Status)

	code, _ = s.do(t, "POST", "/api/jobs/"+created.ID.String()+"/complete", owner, "")
	require.Equal(t, http.StatusOK, code)

	code, raw = s.do(t, "GET", "/api/wallet", vendor, "")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[walletPayload](t, raw).Available.Equal(decimal.NewFromInt(300)))

	code, raw = s.do(t, "GET", "/api/wallet", owner, "")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[walletPayload](t, raw).Escrow.IsZero())

	code, raw = s.do(t, "GET", "/api/notifications/unread/count", vendor, "")
	require.Equal(t, http.StatusOK, code)
	unread := decode[struct {
		Count int `json:"count"`
	}](t, raw)
	// bid_accepted, job_completed и payment_received.
	assert.Equal(t, 3, unread.Count)

	code, _ = s.do(t, "PUT", "/api/notifications/read-all", vendor, "")
	require.Equal(t, http.StatusOK, code)
	_, raw = s.do(t, "GET", "/api/notifications/unread/count", vendor, "")
	assert.Equal(t, 0, decode[struct {
		Count int `json:"count"`
	}](t, raw).Count)
}

func TestRouter_AcceptWithoutFundsLeavesJobOpen(t *testing.T) {
	s := newTestServer(t, 1000)
	_, owner := s.register(t, valueobject.RoleUser)
	_, vendor := s.register(t, valueobject.RoleVendor)

	_, raw := s.do(t, "POST", "/api/jobs", owner, `{"title":"Сборка шкафа","description":"Шкаф из Икеи, три секции","category":"сборка"}`)
	jobID := decode[idPayload](t, raw).ID
	_, raw = s.do(t, "POST", "/api/jobs/"+jobID.String()+"/bids", vendor, `{"amount":"100"}`)
	bidID := decode[idPayload](t, raw).ID

	code, _ := s.do(t, "POST", "/api/jobs/"+jobID.String()+"/bids/"+bidID.String()+"/accept", owner, "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	_, raw = s.do(t, "GET", "/api/jobs/"+jobID.String(), "", "")
	assert.Equal(t, "open", decode[idPayload](t, raw).Status)
}

func TestRouter_AuthAndRoles(t *testing.T) {
	s := newTestServer(t, 1000)
	_, userToken := s.register(t, valueobject.RoleUser)
	_, adminToken := s.register(t, valueobject.RoleAdmin)

	code, _ := s.do(t, "GET", "/health", "", "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, "GET", "/api/wallet", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, "GET", "/api/wallet", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, "GET", "/api/admin/reports", userToken, "")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, "GET", "/api/admin/reports", adminToken, "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, "GET", "/api/jobs/not-a-uuid", "", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, "GET", "/api/jobs/"+uuid.NewString(), "", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRouter_BannedUserRejected(t *testing.T) {
	s := newTestServer(t, 1000)
	_, admin := s.register(t, valueobject.RoleAdmin)
	targetID := uuid.New()
	target := s.token(t, targetID, valueobject.RoleUser)

	code, _ := s.do(t, "POST", "/api/auth/sync", target, `{"email":"spam@example.com"}`)
	require.Equal(t, http.StatusCreated, code)

	code, _ = s.do(t, "POST", "/api/reports", admin, `{"target_type":"user","target_id":"`+targetID.String()+`","reason":"спам"}`)
	require.Equal(t, http.StatusCreated, code)

	code, _ = s.do(t, "POST", "/api/admin/users/"+targetID.String()+"/ban", admin, `{"reason":"спам"}`)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, "GET", "/api/profile", target, "")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, "POST", "/api/admin/users/"+targetID.String()+"/unban", admin, "")
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, "GET", "/api/profile", target, "")
	assert.Equal(t, http.StatusOK, code)
}

func TestRouter_AdminLedgerAndReconcile(t *testing.T) {
	s := newTestServer(t, 1000)
	_, admin := s.register(t, valueobject.RoleAdmin)
	userID, userToken := s.register(t, valueobject.RoleUser)

	code, _ := s.do(t, "POST", "/api/admin/ledger/"+userID.String()+"/credit", admin, `{"amount":"120.50"}`)
	require.Equal(t, http.StatusOK, code)

	// Без job_id резервировать нельзя.
	code, _ = s.do(t, "POST", "/api/admin/ledger/"+userID.String()+"/hold", admin, `{"amount":"20"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, "POST", "/api/wallet/debit", userToken, `{"amount":"500"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, raw := s.do(t, "GET", "/api/admin/ledger/"+userID.String()+"/reconcile", admin, "")
	require.Equal(t, http.StatusOK, code)
	rec := decode[struct {
		Consistent   bool `json:"consistent"`
		Transactions int  `json:"transactions"`
	}](t, raw)
	assert.True(t, rec.Consistent)
	assert.Equal(t, 1, rec.Transactions)
}

func TestRouter_RateLimit(t *testing.T) {
	s := newTestServer(t, 2)
	_, owner := s.register(t, valueobject.RoleUser)

	body := `{"title":"Уборка","description":"Генеральная уборка квартиры","category":"клининг"}`
	for i := 0; i < 2; i++ {
		code, _ := s.do(t, "POST", "/api/jobs", owner, body)
		require.Equal(t, http.StatusCreated, code)
	}
	code, _ := s.do(t, "POST", "/api/jobs", owner, body)
	assert.Equal(t, http.StatusTooManyRequests, code)

	// Другой пользователь считается отдельно.
	_, other := s.register(t, valueobject.RoleUser)
	code, _ = s.do(t, "POST", "/api/jobs", other, body)
	assert.Equal(t, http.StatusCreated, code)
}

func TestRouter_UnsyncedUserCannotWrite(t *testing.T) {
	s := newTestServer(t, 1000)
	token := s.token(t, uuid.New(), valueobject.RoleUser)
	body := `{"title":"Уборка","description":"Генеральная уборка квартиры","category":"клининг"}`

	// Чтение доступно сразу.
	code, _ := s.do(t, "GET", "/api/notifications", token, "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, "POST", "/api/jobs", token, body)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(t, "POST", "/api/wallet/credit", token, `{"amount":"10"}`)
	assert.Equal(t, http.StatusForbidden, code)

	// Роль admin из токена без записи в базе не открывает админские маршруты.
	code, _ = s.do(t, "GET", "/api/admin/reports", s.token(t, uuid.New(), valueobject.RoleAdmin), "")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, "POST", "/api/auth/sync", token, `{"email":"fresh@example.com"}`)
	require.Equal(t, http.StatusCreated, code)
	code, _ = s.do(t, "POST", "/api/jobs", token, body)
	assert.Equal(t, http.StatusCreated, code)
}
