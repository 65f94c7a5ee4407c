package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RefundRecord 退款记录，每笔出资至多一条有效记录
type RefundRecord struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TopicId         int64           `json:"topic_id" gorm:"not null;index"`
	ContributionId  int64           `json:"contribution_id" gorm:"uniqueIndex;not null"`
	OriginalAmount  int64           `json:"original_amount" gorm:"not null"`
	RefundAmount    int64           `json:"refund_amount" gorm:"not null"`
	RefundPercent   decimal.Decimal `json:"refund_percent" gorm:"type:decimal(5,2)"` // 取消=100，超时未交付=90
	PlatformFeeKept int64           `json:"platform_fee_kept" gorm:"default:0"`

	// 外部支付网关的退款单号
	ExternalRefundId string       `json:"external_refund_id"`
	Status           RefundStatus `json:"status" gorm:"default:'pending'"`
	RefundReason     string       `json:"refund_reason" gorm:"type:text"`
	FailReason       string       `json:"fail_reason" gorm:"type:text"`
}

// RefundStatus 退款状态
type RefundStatus string

const (
	RefundStatusPending RefundStatus = "pending" // 待处理
	RefundStatusSuccess RefundStatus = "success" // 成功
	RefundStatusFailed  RefundStatus = "failed"  // 失败
)

// TableName 自定义表名
func (RefundRecord) TableName() string {
	return "refund_record"
}
