package handler

import (
	"errors"
	"strconv"
	"time"

	"avengerhq/internal/config"
	"avengerhq/internal/model"
	"avengerhq/internal/repository"
	"avengerhq/internal/service"
	"avengerhq/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	sessionService      *service.SessionService
	attendanceService   *service.AttendanceService
	ledgerService       *service.LedgerService
	statsService        *service.StatsService
	memberService       *service.MemberService
	missionService      *service.MissionService
	feedbackService     *service.FeedbackService
	announcementService *service.AnnouncementService
}

// NewHandler 创建处理器实例
func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Handler {
	sessionService := service.NewSessionService(db, rdb, cfg)
	ledgerService := service.NewLedgerService(db, rdb, cfg)

	return &Handler{
		sessionService:      sessionService,
		attendanceService:   service.NewAttendanceService(db, cfg, sessionService),
		ledgerService:       ledgerService,
		statsService:        service.NewStatsService(db),
		memberService:       service.NewMemberService(db),
		missionService:      service.NewMissionService(db, ledgerService),
		feedbackService:     service.NewFeedbackService(db),
		announcementService: service.NewAnnouncementService(db),
	}
}

// writeError 业务错误映射为机器可识别的错误码，其余归为内部错误
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionAlreadyActive):
		response.BusinessError(c, response.CodeSessionConflict, err.Error())
	case errors.Is(err, service.ErrAttendanceExpired):
		response.BusinessError(c, response.CodeAttendanceExpired, err.Error())
	case errors.Is(err, service.ErrAttendanceInvalid):
		response.BusinessError(c, response.CodeAttendanceInvalid, err.Error())
	case errors.Is(err, repository.ErrMarkExists):
		response.BusinessError(c, response.CodeAlreadyMarked, err.Error())
	case errors.Is(err, service.ErrInvalidAmount), errors.Is(err, service.ErrSelfTransfer):
		response.BusinessError(c, response.CodeInvalidAmount, err.Error())
	case errors.Is(err, service.ErrUnknownRecipient):
		response.BusinessError(c, response.CodeUnknownRecipient, err.Error())
	case errors.Is(err, repository.ErrBalanceNotEnough):
		response.BusinessError(c, response.CodeBalanceNotEnough, err.Error())
	case errors.Is(err, repository.ErrAccountNotFound):
		response.BusinessError(c, response.CodeAccountNotFound, err.Error())
	case errors.Is(err, repository.ErrMemberNotFound):
		response.BusinessError(c, response.CodeNotFound, err.Error())
	case errors.Is(err, repository.ErrMissionNotFound), errors.Is(err, repository.ErrMissionStatusInvalid):
		response.BusinessError(c, response.CodeMissionNotFound, err.Error())
	case errors.Is(err, repository.ErrFeedbackNotFound):
		response.BusinessError(c, response.CodeFeedbackNotFound, err.Error())
	default:
		response.ServerError(c, err.Error())
	}
}

// ============================================================
// 成员相关接口
// ============================================================

// GetUserDetails 当前登录成员详情
// GET /api/user/details
func (h *Handler) GetUserDetails(c *gin.Context) {
	member := CurrentMember(c)

	detail, err := h.memberService.GetDetail(c.Request.Context(), member.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, detail)
}

// ListAvengers 队员花名册
// GET /api/admin/avengers
func (h *Handler) ListAvengers(c *gin.Context) {
	avengers, err := h.memberService.ListAvengers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, avengers)
}

// DashboardStats 仪表盘统计
// GET /api/admin/dashboard-stats
func (h *Handler) DashboardStats(c *gin.Context) {
	stats, err := h.statsService.Snapshot(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, stats)
}

// ============================================================
// 考勤相关接口
// ============================================================

// StartAttendance 开启考勤场次
// POST /api/admin/attendance/start
func (h *Handler) StartAttendance(c *gin.Context) {
	admin := CurrentMember(c)

	session, err := h.sessionService.Start(c.Request.Context(), admin.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"session_id": session.ID,
		"code":       session.Code,
		"start_time": session.StartTime.Format(time.RFC3339),
		"end_time":   session.EndTime.Format(time.RFC3339),
	})
}

// MarkAttendanceRequest 打卡请求
type MarkAttendanceRequest struct {
	Code string `json:"code" binding:"required,len=6,numeric"`
}

// MarkAttendance 打卡
// POST /api/avenger/attendance/mark
func (h *Handler) MarkAttendance(c *gin.Context) {
	var req MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	member := CurrentMember(c)

	mark, err := h.attendanceService.Mark(c.Request.Context(), member.ID, req.Code)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"session_id": mark.SessionID,
		"member_id":  mark.MemberID,
		"marked_at":  mark.MarkedAt.Format(time.RFC3339),
	})
}

// AttendanceRecords 全部打卡记录
// GET /api/admin/attendance/records
func (h *Handler) AttendanceRecords(c *gin.Context) {
	records, err := h.attendanceService.Records(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, records)
}

// ============================================================
// 账本相关接口
// ============================================================

// SendPaymentRequest 发放/转账请求
type SendPaymentRequest struct {
	ReceiverID  int64  `json:"receiver_id" binding:"required"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Type        string `json:"type" binding:"required,oneof=SALARY SEND_MONEY MISSION_REWARD BONUS"`
	Description string `json:"description"`
}

// SendPayment 指挥官发放报酬或转账
// POST /api/admin/payments/send
//
// 工资、任务奖励、奖金是系统发放（无扣款方）；
// SEND_MONEY 从指挥官自己的账户扣款
func (h *Handler) SendPayment(c *gin.Context) {
	var req SendPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	admin := CurrentMember(c)

	transferReq := &service.TransferRequest{
		ReceiverID:  req.ReceiverID,
		Amount:      req.Amount,
		Type:        req.Type,
		Description: req.Description,
	}
	if !model.SystemIssued(req.Type) {
		transferReq.SenderID = &admin.ID
	}

	trans, err := h.ledgerService.Transfer(c.Request.Context(), transferReq)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, trans)
}

// SendMoneyRequest 队员转账请求
type SendMoneyRequest struct {
	ReceiverID  int64  `json:"receiver_id" binding:"required"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description"`
}

// SendMoney 队员间转账
// POST /api/avenger/payments/send
func (h *Handler) SendMoney(c *gin.Context) {
	var req SendMoneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	member := CurrentMember(c)

	trans, err := h.ledgerService.Transfer(c.Request.Context(), &service.TransferRequest{
		SenderID:    &member.ID,
		ReceiverID:  req.ReceiverID,
		Amount:      req.Amount,
		Type:        model.TransactionTypeSendMoney,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, trans)
}

// PaymentHistory 全量流水
// GET /api/admin/payments/history?page=1&page_size=10
func (h *Handler) PaymentHistory(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	transactions, total, err := h.ledgerService.History(c.Request.Context(), nil, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":      transactions,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// MyPaymentHistory 当前成员流水
// GET /api/avenger/payments/history?page=1&page_size=10
func (h *Handler) MyPaymentHistory(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	member := CurrentMember(c)

	transactions, total, err := h.ledgerService.History(c.Request.Context(), &member.ID, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":      transactions,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// VerifyBalance 对账：按流水重算某账户余额
// GET /api/admin/ledger/verify?member_id=xxx
func (h *Handler) VerifyBalance(c *gin.Context) {
	memberIDStr := c.Query("member_id")
	memberID, err := strconv.ParseInt(memberIDStr, 10, 64)
	if err != nil {
		response.ParamError(c, "member_id 参数错误")
		return
	}

	recomputed, err := h.ledgerService.VerifyBalance(c.Request.Context(), memberID)
	if err != nil && !errors.Is(err, service.ErrLedgerMismatch) {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"member_id":  memberID,
		"recomputed": recomputed,
		"consistent": err == nil,
	})
}

// ============================================================
// 任务相关接口
// ============================================================

// CreateMissionRequest 创建任务请求
type CreateMissionRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Reward      int64  `json:"reward" binding:"gte=0"`
	AssigneeID  *int64 `json:"assignee_id"`
}

// CreateMission 创建任务
// POST /api/admin/missions
func (h *Handler) CreateMission(c *gin.Context) {
	var req CreateMissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	admin := CurrentMember(c)

	mission, err := h.missionService.Create(c.Request.Context(), admin.ID, &service.CreateMissionRequest{
		Title:       req.Title,
		Description: req.Description,
		Reward:      req.Reward,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, mission)
}

// ListMissions 任务列表
// GET /api/admin/missions、GET /api/avenger/missions
func (h *Handler) ListMissions(c *gin.Context) {
	missions, err := h.missionService.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, missions)
}

// CompleteMission 完成任务并发放奖励
// POST /api/admin/missions/:id/complete
func (h *Handler) CompleteMission(c *gin.Context) {
	missionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "任务ID参数错误")
		return
	}

	mission, err := h.missionService.Complete(c.Request.Context(), missionID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, mission)
}

// FailMission 标记任务失败
// POST /api/admin/missions/:id/fail
func (h *Handler) FailMission(c *gin.Context) {
	missionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "任务ID参数错误")
		return
	}

	if err := h.missionService.Fail(c.Request.Context(), missionID); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "任务已标记失败"})
}

// ============================================================
// 反馈与公告接口
// ============================================================

// SubmitFeedbackRequest 提交反馈请求
type SubmitFeedbackRequest struct {
	Content string `json:"content" binding:"required"`
}

// SubmitFeedback 队员提交反馈
// POST /api/avenger/feedback
func (h *Handler) SubmitFeedback(c *gin.Context) {
	var req SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	member := CurrentMember(c)

	feedback, err := h.feedbackService.Submit(c.Request.Context(), member.ID, req.Content)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, feedback)
}

// ListFeedback 反馈列表
// GET /api/admin/feedback
func (h *Handler) ListFeedback(c *gin.Context) {
	items, err := h.feedbackService.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, items)
}

// MarkFeedbackRead 标记反馈已读
// PUT /api/admin/feedback/:id/read
func (h *Handler) MarkFeedbackRead(c *gin.Context) {
	feedbackID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "反馈ID参数错误")
		return
	}

	if err := h.feedbackService.MarkRead(c.Request.Context(), feedbackID); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "已标记为已读"})
}

// CreateAnnouncementRequest 创建公告请求
type CreateAnnouncementRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
}

// CreateAnnouncement 创建公告
// POST /api/admin/announcements
func (h *Handler) CreateAnnouncement(c *gin.Context) {
	var req CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	admin := CurrentMember(c)

	announcement, err := h.announcementService.Create(c.Request.Context(), admin.ID, req.Title, req.Content)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, announcement)
}

// ListAnnouncements 公告列表
// GET /api/admin/announcements、GET /api/avenger/announcements
func (h *Handler) ListAnnouncements(c *gin.Context) {
	items, err := h.announcementService.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, items)
}
