package logic

import (
	"fmt"

	"github.com/jaylenmareko/topic-funding-sub000/internal/model"
	"gorm.io/gorm"
)

// RefundRecordLogic 退款记录查询
type RefundRecordLogic struct {
	db *gorm.DB
}

// NewRefundRecordLogic 创建退款记录查询
func NewRefundRecordLogic(db *gorm.DB) *RefundRecordLogic {
	return &RefundRecordLogic{db: db}
}

// GetTopicRefunds 获取话题退款记录
func (r *RefundRecordLogic) GetTopicRefunds(topicId int64, page, pageSize int) ([]model.RefundRecord, int64, error) {
	var refunds []model.RefundRecord
	var total int64

	if err := r.db.Model(&model.RefundRecord{}).Where("topic_id = ?", topicId).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := r.db.Where("topic_id = ?", topicId).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&refunds).Error; err != nil {
		return nil, 0, err
	}

	return refunds, total, nil
}

// GetRefundStats 获取话题退款统计信息
func (r *RefundRecordLogic) GetRefundStats(topicId int64) (map[string]interface{}, error) {
	var stats struct {
		TotalRefunds  int64 `json:"total_refunds"`
		TotalRefunded int64 `json:"total_refunded"`
		TotalFeeKept  int64 `json:"total_fee_kept"`
		FailedRefunds int64 `json:"failed_refunds"`
	}

	if err := r.db.Model(&model.RefundRecord{}).
		Where("topic_id = ? AND status = ?", topicId, model.RefundStatusSuccess).
		Count(&stats.TotalRefunds).Error; err != nil {
		return nil, fmt.Errorf("获取退款笔数失败: %w", err)
	}

	if err := r.db.Model(&model.RefundRecord{}).
		Where("topic_id = ? AND status = ?", topicId, model.RefundStatusSuccess).
		Select("COALESCE(SUM(refund_amount), 0)").
		Scan(&stats.TotalRefunded).Error; err != nil {
		return nil, fmt.Errorf("获取退款总额失败: %w", err)
	}

	if err := r.db.Model(&model.RefundRecord{}).
		Where("topic_id = ? AND status = ?", topicId, model.RefundStatusSuccess).
		Select("COALESCE(SUM(platform_fee_kept), 0)").
		Scan(&stats.TotalFeeKept).Error; err != nil {
		return nil, fmt.Errorf("获取平台保留总额失败: %w", err)
	}

	if err := r.db.Model(&model.RefundRecord{}).
		Where("topic_id = ? AND status = ?", topicId, model.RefundStatusFailed).
		Count(&stats.FailedRefunds).Error; err != nil {
		return nil, fmt.Errorf("获取失败退款笔数失败: %w", err)
	}

	return map[string]interface{}{
		"total_refunds":  stats.TotalRefunds,
		"total_refunded": stats.TotalRefunded,
		"total_fee_kept": stats.TotalFeeKept,
		"failed_refunds": stats.FailedRefunds,
	}, nil
}
