package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/labour-market/internal/interface/http/dto"
	"github.com/ignatzorin/labour-market/internal/interface/http/response"
	"github.com/ignatzorin/labour-market/internal/usecase/report"
	"github.com/ignatzorin/labour-market/internal/usecase/user"
)

type ModerationHandler struct {
	createUC   *report.CreateReportUseCase
	resolveUC  *report.ResolveReportUseCase
	listUC     *report.ListReportsUseCase
	listMineUC *report.ListMineUseCase
	banUC      *user.BanUseCase
	unbanUC    *user.UnbanUseCase
}

func NewModerationHandler(
	createUC *report.CreateReportUseCase,
	resolveUC *report.ResolveReportUseCase,
	listUC *report.ListReportsUseCase,
	listMineUC *report.ListMineUseCase,
	banUC *user.BanUseCase,
	unbanUC *user.UnbanUseCase,
) *ModerationHandler {
	return &ModerationHandler{
		createUC:   createUC,
		resolveUC:  resolveUC,
		listUC:     listUC,
		listMineUC: listMineUC,
		banUC:      banUC,
		unbanUC:    unbanUC,
	}
}

func (h *ModerationHandler) CreateReport(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req dto.CreateReportRequest
	if !bindJSON(c, &req) {
		return
	}
	created, err := h.createUC.Execute(c.Request.Context(), report.CreateCommand{
		ReporterID:  a.UserID,
		TargetType:  req.TargetType,
		TargetID:    uuid.MustParse(req.TargetID),
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, dto.ToReportResponse(created))
}

func (h *ModerationHandler) MyReports(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	limit := parseIntQuery(c, "limit", 20)
	offset := parseIntQuery(c, "offset", 0)
	reports, total, err := h.listMineUC.Execute(c.Request.Context(), a.UserID, limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	response.Paginated(c, dto.ToReportResponses(reports), total, limit, offset)
}

// ListReports: очередь модерации, ?status= (по умолчанию pending).
func (h *ModerationHandler) ListReports(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	q := report.ListQuery{
		Status: c.Query("status"),
		Limit:  parseIntQuery(c, "limit", 20),
		Offset: parseIntQuery(c, "offset", 0),
	}
	reports, total, err := h.listUC.Execute(c.Request.Context(), a, q)
	if err != nil {
		fail(c, err)
		return
	}
	response.Paginated(c, dto.ToReportResponses(reports), total, q.Limit, q.Offset)
}

func (h *ModerationHandler) ResolveReport(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ResolveReportRequest
	if !bindJSON(c, &req) {
		return
	}
	resolved, err := h.resolveUC.Execute(c.Request.Context(), report.ResolveCommand{
		Actor:    a,
		ReportID: id,
		Outcome:  req.Outcome,
		Note:     req.Note,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto.ToReportResponse(resolved))
}

func (h *ModerationHandler) Ban(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.BanUserRequest
	if !bindJSON(c, &req) {
		return
	}
	banned, err := h.banUC.Execute(c.Request.Context(), user.BanCommand{Actor: a, TargetID: id, Reason: req.Reason})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto.ToUserResponse(banned))
}

func (h *ModerationHandler) Unban(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	unbanned, err := h.unbanUC.Execute(c.Request.Context(), a, id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto.ToUserResponse(unbanned))
}
