package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/labour-market/internal/interface/http/dto"
	"github.com/ignatzorin/labour-market/internal/interface/http/response"
	"github.com/ignatzorin/labour-market/internal/usecase/bid"
	"github.com/ignatzorin/labour-market/internal/usecase/job"
)

type JobHandler struct {
	createUC   *job.CreateJobUseCase
	getUC      *job.GetJobUseCase
	listUC     *job.ListJobsUseCase
	completeUC *job.CompleteJobUseCase
	cancelUC   *job.CancelJobUseCase
}

func NewJobHandler(
	createUC *job.CreateJobUseCase,
	getUC *job.GetJobUseCase,
	listUC *job.ListJobsUseCase,
	completeUC *job.CompleteJobUseCase,
	cancelUC *job.CancelJobUseCase,
) *JobHandler {
	return &JobHandler{
		createUC:   createUC,
		getUC:      getUC,
		listUC:     listUC,
		completeUC: completeUC,
		cancelUC:   cancelUC,
	}
}

func (h *JobHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req dto.CreateJobRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.createUC.Execute(c.Request.Context(), job.CreateJobCommand{
		OwnerID:     a.UserID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		BudgetMin:   req.BudgetMin,
		BudgetMax:   req.BudgetMax,
		Timeline:    req.Timeline,
		Urgency:     req.Urgency,
		City:        req.City,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, dto.ToJobResponse(created))
}

func (h *JobHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	found, err := h.getUC.Execute(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto.ToJobResponse(found))
}

// List: ?status=&category=&owner_id=&limit=&offset=
func (h *JobHandler) List(c *gin.Context) {
	q := job.ListJobsQuery{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Limit:    parseIntQuery(c, "limit", 20),
		Offset:   parseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("owner_id"); raw != "" {
		ownerID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "owner_id должен быть валидным UUID")
			return
		}
		q.OwnerID = &ownerID
	}

	jobs, total, err := h.listUC.Execute(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	response.Paginated(c, dto.ToJobResponses(jobs), total, q.Limit, q.Offset)
}

func (h *JobHandler) Complete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	res, err := h.completeUC.Execute(c.Request.Context(), id, a.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto.CompleteJobResponse{Job: dto.ToJobResponse(res.Job), ReleasedAmount: res.ReleasedAmount})
}

func (h *JobHandler) Cancel(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	res, err := h.cancelUC.Execute(c.Request.Context(), id, a.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto.CancelJobResponse{
		Job:            dto.ToJobResponse(res.Job),
		RefundedAmount: res.RefundedAmount,
		RejectedBids:   res.RejectedBids,
	})
}

type BidHandler struct {
	submitUC     *bid.SubmitBidUseCase
	acceptUC     *bid.AcceptBidUseCase
	withdrawUC   *bid.WithdrawBidUseCase
	listForJobUC *bid.ListJobBidsUseCase
	listMineUC   *bid.ListVendorBidsUseCase
}

func NewBidHandler(
	submitUC *bid.SubmitBidUseCase,
	acceptUC *bid.AcceptBidUseCase,
	withdrawUC *bid.WithdrawBidUseCase,
	listForJobUC *bid.ListJobBidsUseCase,
	listMineUC *bid.ListVendorBidsUseCase,
) *BidHandler {
	return &BidHandler{
		submitUC:     submitUC,
		acceptUC:     acceptUC,
		withdrawUC:   withdrawUC,
		listForJobUC: listForJobUC,
		listMineUC:   listMineUC,
	}
}

func (h *BidHandler) Submit(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	jobID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.SubmitBidRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.submitUC.Execute(c.Request.Context(), bid.SubmitCommand{
		JobID:        jobID,
		VendorID:     a.UserID,
		Amount:       req.Amount,
		Message:      req.Message,
		DeliveryTime: req.DeliveryTime,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, dto.ToBidResponse(created))
}

func (h *BidHandler) Accept(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	jobID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	bidID, ok := uuidParam(c, "bidId")
	if !ok {
		return
	}

	res, err := h.acceptUC.Execute(c.Request.Context(), bid.AcceptCommand{JobID: jobID, BidID: bidID, ActorID: a.UserID})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto.AcceptBidResponse{
		Job:          dto.ToJobResponse(res.Job),
		AcceptedBid:  dto.ToBidResponse(res.Bid),
		RejectedBids: dto.ToBidResponses(res.RejectedBids),
	})
}

func (h *BidHandler) Withdraw(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	bidID, ok := uuidParam(c, "bidId")
	if !ok {
		return
	}
	withdrawn, err := h.withdrawUC.Execute(c.Request.Context(), bidID, a.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto.ToBidResponse(withdrawn))
}

func (h *BidHandler) ListForJob(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	jobID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	bids, err := h.listForJobUC.Execute(c.Request.Context(), jobID, a)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto.ToBidResponses(bids))
}

func (h *BidHandler) ListMine(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	bids, err := h.listMineUC.Execute(c.Request.Context(), a.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto.ToBidResponses(bids))
}
