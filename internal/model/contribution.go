package model

import (
	"time"
)

// Contribution 出资记录
type Contribution struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TopicId int64  `json:"topic_id" gorm:"not null;index"`
	UserId  *int64 `json:"user_id"` // 游客出资时为空
	Amount  int64  `json:"amount" gorm:"not null"`

	// 外部支付网关的支付单号，唯一索引即幂等防线
	PaymentId     string        `json:"payment_id" gorm:"uniqueIndex;not null"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"default:'completed'"`
	ContributedAt time.Time     `json:"contributed_at"`
}

// PaymentStatus 出资的支付状态
type PaymentStatus string

const (
	PaymentStatusCompleted        PaymentStatus = "completed"           // 已入账
	PaymentStatusRefunded         PaymentStatus = "refunded"            // 已全额退款
	PaymentStatusRefunded90       PaymentStatus = "refunded_90_percent" // 超时未交付，退款90%
)

// TableName 自定义表名
func (Contribution) TableName() string {
	return "contribution"
}
