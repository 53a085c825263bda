package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/labour-market/internal/interface/http/dto"
	"github.com/ignatzorin/labour-market/internal/interface/http/response"
	"github.com/ignatzorin/labour-market/internal/usecase/ledger"
)

// WalletHandler — кошелёк пользователя и админские операции журнала.
type WalletHandler struct {
	getAccountUC *ledger.GetAccountUseCase
	listTxUC     *ledger.ListTransactionsUseCase
	reconcileUC  *ledger.ReconcileUseCase
	operations   map[string]*ledger.OperationUseCase
}

// NewWalletHandler принимает операции по именам: credit, debit, hold, release, refund.
func NewWalletHandler(
	getAccountUC *ledger.GetAccountUseCase,
	listTxUC *ledger.ListTransactionsUseCase,
	reconcileUC *ledger.ReconcileUseCase,
	operations map[string]*ledger.OperationUseCase,
) *WalletHandler {
	return &WalletHandler{
		getAccountUC: getAccountUC,
		listTxUC:     listTxUC,
		reconcileUC:  reconcileUC,
		operations:   operations,
	}
}

func (h *WalletHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	account, err := h.getAccountUC.Execute(c.Request.Context(), a.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto.ToAccountResponse(account))
}

func (h *WalletHandler) Transactions(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	limit := parseIntQuery(c, "limit", 20)
	offset := parseIntQuery(c, "offset", 0)
	txs, total, err := h.listTxUC.Execute(c.Request.Context(), a.UserID, limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	response.Paginated(c, dto.ToTransactionResponses(txs), total, limit, offset)
}

// Own выполняет credit/debit над своим кошельком.
func (h *WalletHandler) Own(operation string) gin.HandlerFunc {
	uc := h.operations[operation]
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		var req dto.WalletOperationRequest
		if !bindJSON(c, &req) {
			return
		}
		res, err := uc.Execute(c.Request.Context(), ledger.OperationCommand{
			Actor:       a,
			UserID:      a.UserID,
			Amount:      req.Amount,
			Description: req.Description,
		})
		if err != nil {
			fail(c, err)
			return
		}
		response.Success(c, dto.ToOperationResponse(res))
	}
}

// Admin выполняет операцию над кошельком пользователя :userId.
func (h *WalletHandler) Admin(operation string) gin.HandlerFunc {
	uc := h.operations[operation]
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		userID, ok := uuidParam(c, "userId")
		if !ok {
			return
		}
		var req dto.LedgerOperationRequest
		if !bindJSON(c, &req) {
			return
		}
		res, err := uc.Execute(c.Request.Context(), ledger.OperationCommand{
			Actor:         a,
			UserID:        userID,
			Amount:        req.Amount,
			Description:   req.Description,
			JobID:         optionalUUID(req.JobID),
			DestinationID: optionalUUID(req.DestinationID),
		})
		if err != nil {
			fail(c, err)
			return
		}
		response.Success(c, dto.ToOperationResponse(res))
	}
}

func (h *WalletHandler) Reconcile(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	report, err := h.reconcileUC.Execute(c.Request.Context(), a, userID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto.ToReconcileResponse(report))
}
