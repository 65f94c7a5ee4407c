package logic

import (
	"errors"
)

// 核心错误分类
// handler 层据此映射HTTP状态码，细节只进日志不出接口
var (
	ErrValidation        = errors.New("参数校验失败")
	ErrTopicNotFound     = errors.New("话题不存在")
	ErrTopicClosed       = errors.New("话题已结束，不再接受出资")
	ErrDuplicatePayment  = errors.New("该支付已入账")   // 调用方视为成功，禁止重复记账
	ErrInvalidTransition = errors.New("当前状态不允许该操作")
	ErrDeadlinePassed    = errors.New("交付截止时间已过")
	ErrPermissionDenied  = errors.New("无权操作该话题")
	ErrRefundFailed      = errors.New("退款调用失败")
)
