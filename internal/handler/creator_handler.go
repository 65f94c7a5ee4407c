package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jaylenmareko/topic-funding-sub000/internal/logger"
	"github.com/jaylenmareko/topic-funding-sub000/internal/logic"
)

// CreatorActionHandler 创作者操作处理器
// 每个接口对应状态机的一条转移
type CreatorActionHandler struct {
	lifecycleLogic *logic.LifecycleLogic
}

// NewCreatorActionHandler 创建创作者操作处理器
func NewCreatorActionHandler(lifecycleLogic *logic.LifecycleLogic) *CreatorActionHandler {
	return &CreatorActionHandler{
		lifecycleLogic: lifecycleLogic,
	}
}

// DeliverContentRequest 交付内容请求
type DeliverContentRequest struct {
	ContentUrl string `json:"content_url" binding:"required"`
}

// HoldRequest 挂起请求
type HoldRequest struct {
	Reason string `json:"reason"`
}

// DeliverContent 交付内容，funded → completed
func (h *CreatorActionHandler) DeliverContent(c *gin.Context) {
	topicId, actorId, ok := h.parseIds(c)
	if !ok {
		return
	}

	var req DeliverContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "内容链接不能为空")
		return
	}

	if err := h.lifecycleLogic.DeliverContent(actorId, topicId, req.ContentUrl); err != nil {
		h.respondError(c, topicId, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "内容交付成功", nil)
}

// Hold 挂起话题，funded → on_hold
func (h *CreatorActionHandler) Hold(c *gin.Context) {
	topicId, actorId, ok := h.parseIds(c)
	if !ok {
		return
	}

	var req HoldRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.lifecycleLogic.Hold(actorId, topicId, req.Reason); err != nil {
		h.respondError(c, topicId, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "话题已挂起", nil)
}

// Resume 恢复话题，on_hold → funded
func (h *CreatorActionHandler) Resume(c *gin.Context) {
	topicId, actorId, ok := h.parseIds(c)
	if !ok {
		return
	}

	if err := h.lifecycleLogic.Resume(actorId, topicId); err != nil {
		h.respondError(c, topicId, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "话题已恢复", nil)
}

// Decline 拒绝话题，全额退款后置为 cancelled
func (h *CreatorActionHandler) Decline(c *gin.Context) {
	topicId, actorId, ok := h.parseIds(c)
	if !ok {
		return
	}

	if err := h.lifecycleLogic.Cancel(actorId, topicId); err != nil {
		h.respondError(c, topicId, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "话题已取消", nil)
}

// parseIds 解析路径话题ID与操作者ID
// 操作者身份由上游认证网关写入 X-User-Id，鉴权决策在 authz.Policy
func (h *CreatorActionHandler) parseIds(c *gin.Context) (topicId, actorId int64, ok bool) {
	topicIdStr := c.Param("id")
	topicId, err := strconv.ParseInt(topicIdStr, 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的话题ID")
		return 0, 0, false
	}

	actorId, err = strconv.ParseInt(c.GetHeader("X-User-Id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusUnauthorized, "缺少操作者身份")
		return 0, 0, false
	}

	return topicId, actorId, true
}

// respondError 错误映射
func (h *CreatorActionHandler) respondError(c *gin.Context, topicId int64, err error) {
	switch {
	case errors.Is(err, logic.ErrValidation):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, logic.ErrTopicNotFound):
		ErrorResponse(c, http.StatusNotFound, logic.ErrTopicNotFound.Error())
	case errors.Is(err, logic.ErrPermissionDenied):
		ErrorResponse(c, http.StatusForbidden, logic.ErrPermissionDenied.Error())
	case errors.Is(err, logic.ErrInvalidTransition):
		ErrorResponse(c, http.StatusConflict, logic.ErrInvalidTransition.Error())
	case errors.Is(err, logic.ErrDeadlinePassed):
		ErrorResponse(c, http.StatusConflict, logic.ErrDeadlinePassed.Error())
	default:
		logger.Error("Creator action failed for topic %d: %v", topicId, err)
		ErrorResponse(c, http.StatusInternalServerError, "操作失败")
	}
}
