package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaylenmareko/topic-funding-sub000/internal/logger"
	"github.com/jaylenmareko/topic-funding-sub000/internal/logic"
)

// 支付类型
const (
	PaymentTypeContribution  = "contribution"
	PaymentTypeTopicCreation = "topic_creation"
)

// WebhookHandler 支付网关回调处理器
type WebhookHandler struct {
	ledgerLogic *logic.LedgerLogic
}

// NewWebhookHandler 创建支付网关回调处理器
func NewWebhookHandler(ledgerLogic *logic.LedgerLogic) *WebhookHandler {
	return &WebhookHandler{
		ledgerLogic: ledgerLogic,
	}
}

// PaymentWebhookRequest 支付完成回调
// 网关会对同一支付重试投递，幂等由 payment_id 保证
type PaymentWebhookRequest struct {
	PaymentId   string `json:"payment_id" binding:"required"`
	PaymentType string `json:"payment_type" binding:"required"`
	Amount      int64  `json:"amount" binding:"required"`
	UserId      *int64 `json:"user_id"`

	// contribution 类型必填
	TopicId int64 `json:"topic_id"`

	// topic_creation 类型必填
	CreatorId        int64  `json:"creator_id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	FundingThreshold int64  `json:"funding_threshold"`
}

// HandlePaymentCompleted 处理支付完成回调
func (h *WebhookHandler) HandlePaymentCompleted(c *gin.Context) {
	var req PaymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的回调参数")
		return
	}

	switch req.PaymentType {
	case PaymentTypeContribution:
		h.handleContribution(c, &req)
	case PaymentTypeTopicCreation:
		h.handleTopicCreation(c, &req)
	default:
		ErrorResponse(c, http.StatusBadRequest, "未知的支付类型")
	}
}

// handleContribution 追加出资入账
func (h *WebhookHandler) handleContribution(c *gin.Context, req *PaymentWebhookRequest) {
	result, err := h.ledgerLogic.ApplyContribution(req.TopicId, req.UserId, req.Amount, req.PaymentId)
	if err != nil {
		// 重复回调视为成功，网关收到2xx后停止重试
		if errors.Is(err, logic.ErrDuplicatePayment) {
			SuccessResponse(c, http.StatusOK, "该支付已入账", nil)
			return
		}
		h.respondError(c, req.PaymentId, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "入账成功", ApplyContributionResponse{
		ContributionId:   result.ContributionId,
		CurrentFunding:   result.CurrentFunding,
		CrossedThreshold: result.CrossedThreshold,
		TopicId:          req.TopicId,
	})
}

// handleTopicCreation 首笔出资建题
func (h *WebhookHandler) handleTopicCreation(c *gin.Context, req *PaymentWebhookRequest) {
	topic, result, err := h.ledgerLogic.CreateTopicWithSeed(logic.CreateTopicRequest{
		CreatorId:        req.CreatorId,
		Title:            req.Title,
		Description:      req.Description,
		FundingThreshold: req.FundingThreshold,
		UserId:           req.UserId,
		Amount:           req.Amount,
		PaymentId:        req.PaymentId,
	})
	if err != nil {
		if errors.Is(err, logic.ErrDuplicatePayment) {
			SuccessResponse(c, http.StatusOK, "该支付已入账", nil)
			return
		}
		h.respondError(c, req.PaymentId, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "建题成功", ApplyContributionResponse{
		ContributionId:   result.ContributionId,
		CurrentFunding:   result.CurrentFunding,
		CrossedThreshold: result.CrossedThreshold,
		TopicId:          topic.Id,
	})
}

// respondError 错误映射：细节进日志，接口只给笼统信息
func (h *WebhookHandler) respondError(c *gin.Context, paymentId string, err error) {
	switch {
	case errors.Is(err, logic.ErrValidation):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, logic.ErrTopicNotFound):
		ErrorResponse(c, http.StatusNotFound, logic.ErrTopicNotFound.Error())
	case errors.Is(err, logic.ErrTopicClosed):
		ErrorResponse(c, http.StatusConflict, logic.ErrTopicClosed.Error())
	default:
		logger.Error("Failed to apply payment %s: %v", paymentId, err)
		ErrorResponse(c, http.StatusInternalServerError, "入账失败")
	}
}
