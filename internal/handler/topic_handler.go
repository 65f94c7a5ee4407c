package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jaylenmareko/topic-funding-sub000/internal/logger"
	"github.com/jaylenmareko/topic-funding-sub000/internal/logic"
	"gorm.io/gorm"
)

// TopicHandler 话题查询处理器
type TopicHandler struct {
	topicLogic  *logic.TopicLogic
	refundLogic *logic.RefundRecordLogic
}

// NewTopicHandler 创建话题查询处理器
func NewTopicHandler(db *gorm.DB) *TopicHandler {
	return &TopicHandler{
		topicLogic:  logic.NewTopicLogic(db),
		refundLogic: logic.NewRefundRecordLogic(db),
	}
}

// GetTopics 获取话题列表
func (h *TopicHandler) GetTopics(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "10"))
	status := c.Query("status")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	topics, total, err := h.topicLogic.GetTopics(status, page, pageSize)
	if err != nil {
		logger.Error("Failed to get topics: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "获取话题列表失败")
		return
	}

	SuccessResponse(c, http.StatusOK, "获取话题列表成功", GetTopicsResponse{
		Topics:     ToTopicResponseList(topics),
		Pagination: NewPagination(page, pageSize, total),
	})
}

// GetTopic 获取话题详情
func (h *TopicHandler) GetTopic(c *gin.Context) {
	id, ok := h.parseTopicId(c)
	if !ok {
		return
	}

	topic, err := h.topicLogic.GetTopic(id)
	if err != nil {
		if errors.Is(err, logic.ErrTopicNotFound) {
			ErrorResponse(c, http.StatusNotFound, logic.ErrTopicNotFound.Error())
			return
		}
		logger.Error("Failed to get topic %d: %v", id, err)
		ErrorResponse(c, http.StatusInternalServerError, "获取话题详情失败")
		return
	}

	SuccessResponse(c, http.StatusOK, "获取话题详情成功", GetTopicResponse{
		Topic: ToTopicResponse(topic),
	})
}

// GetTopicStats 获取话题统计信息
func (h *TopicHandler) GetTopicStats(c *gin.Context) {
	id, ok := h.parseTopicId(c)
	if !ok {
		return
	}

	stats, err := h.topicLogic.GetTopicStats(id)
	if err != nil {
		if errors.Is(err, logic.ErrTopicNotFound) {
			ErrorResponse(c, http.StatusNotFound, logic.ErrTopicNotFound.Error())
			return
		}
		logger.Error("Failed to get topic stats %d: %v", id, err)
		ErrorResponse(c, http.StatusInternalServerError, "获取话题统计失败")
		return
	}

	SuccessResponse(c, http.StatusOK, "获取话题统计成功", GetTopicStatsResponse{
		Stats: stats,
	})
}

// GetTopicContributions 获取话题出资记录
func (h *TopicHandler) GetTopicContributions(c *gin.Context) {
	id, ok := h.parseTopicId(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	contributions, total, err := h.topicLogic.GetTopicContributions(id, page, pageSize)
	if err != nil {
		logger.Error("Failed to get contributions for topic %d: %v", id, err)
		ErrorResponse(c, http.StatusInternalServerError, "获取出资记录失败")
		return
	}

	SuccessResponse(c, http.StatusOK, "获取出资记录成功", GetTopicContributionsResponse{
		Records:    ToContributionResponseList(contributions),
		Pagination: NewPagination(page, pageSize, total),
	})
}

// GetTopicRefunds 获取话题退款记录
func (h *TopicHandler) GetTopicRefunds(c *gin.Context) {
	id, ok := h.parseTopicId(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	refunds, total, err := h.refundLogic.GetTopicRefunds(id, page, pageSize)
	if err != nil {
		logger.Error("Failed to get refunds for topic %d: %v", id, err)
		ErrorResponse(c, http.StatusInternalServerError, "获取退款记录失败")
		return
	}

	SuccessResponse(c, http.StatusOK, "获取退款记录成功", GetTopicRefundsResponse{
		Refunds:    ToRefundRecordResponseList(refunds),
		Pagination: NewPagination(page, pageSize, total),
	})
}

// GetRefundStats 获取话题退款统计
func (h *TopicHandler) GetRefundStats(c *gin.Context) {
	id, ok := h.parseTopicId(c)
	if !ok {
		return
	}

	stats, err := h.refundLogic.GetRefundStats(id)
	if err != nil {
		logger.Error("Failed to get refund stats for topic %d: %v", id, err)
		ErrorResponse(c, http.StatusInternalServerError, "获取退款统计失败")
		return
	}

	SuccessResponse(c, http.StatusOK, "获取退款统计成功", GetRefundStatsResponse{
		Stats: stats,
	})
}

// parseTopicId 解析路径话题ID
func (h *TopicHandler) parseTopicId(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的话题ID")
		return 0, false
	}
	return id, true
}
