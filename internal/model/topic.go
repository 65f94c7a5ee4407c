package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Topic 话题众筹模型
type Topic struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Title       string `json:"title" gorm:"not null" binding:"required"`
	Description string `json:"description" gorm:"type:text"`
	CreatorId   int64  `json:"creator_id" gorm:"not null;index"`

	// 众筹信息（金额单位：分）
	FundingThreshold int64 `json:"funding_threshold" gorm:"not null" binding:"required,min=1"`
	CurrentFunding   int64 `json:"current_funding" gorm:"default:0"`

	// 状态
	Status TopicStatus `json:"status" gorm:"default:'active';index"`

	// 交付信息
	FundedAt        *time.Time `json:"funded_at"`
	ContentDeadline *time.Time `json:"content_deadline"`
	CompletedAt     *time.Time `json:"completed_at"`
	ContentUrl      string     `json:"content_url"`

	// 结算信息
	PlatformFeePercent decimal.Decimal `json:"platform_fee_percent" gorm:"type:decimal(5,2)"`
	PlatformFeeAmount  int64           `json:"platform_fee_amount" gorm:"default:0"`
	CreatorPayout      int64           `json:"creator_payout_amount" gorm:"column:creator_payout_amount;default:0"`
	FeeProcessed       bool            `json:"fee_processed" gorm:"default:false"`

	// 挂起信息
	HoldReason string     `json:"hold_reason" gorm:"type:text"`
	HeldAt     *time.Time `json:"held_at"`
}

// TopicStatus 话题状态
type TopicStatus string

const (
	TopicStatusActive    TopicStatus = "active"    // 众筹中
	TopicStatusFunded    TopicStatus = "funded"    // 已达标，等待交付
	TopicStatusOnHold    TopicStatus = "on_hold"   // 创作者挂起，截止时钟暂停
	TopicStatusCompleted TopicStatus = "completed" // 已交付
	TopicStatusFailed    TopicStatus = "failed"    // 超时未交付
	TopicStatusCancelled TopicStatus = "cancelled" // 已取消
)

// IsTerminal 是否为终态
func (s TopicStatus) IsTerminal() bool {
	return s == TopicStatusCompleted || s == TopicStatusFailed || s == TopicStatusCancelled
}

// TableName 自定义表名
func (Topic) TableName() string {
	return "topic"
}
