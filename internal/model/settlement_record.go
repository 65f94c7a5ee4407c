package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementRecord 结算记录，每个达标话题仅有一条
type SettlementRecord struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TopicId       int64           `json:"topic_id" gorm:"uniqueIndex;not null"`
	TotalFunding  int64           `json:"total_funding" gorm:"not null"`
	FeePercent    decimal.Decimal `json:"fee_percent" gorm:"type:decimal(5,2)"`
	FeeAmount     int64           `json:"fee_amount" gorm:"not null"`
	CreatorAmount int64           `json:"creator_amount" gorm:"not null"`

	Status    SettlementStatus `json:"status" gorm:"default:'pending'"`
	SettledAt *time.Time       `json:"settled_at"`
}

// SettlementStatus 结算状态
type SettlementStatus string

const (
	SettlementStatusPending   SettlementStatus = "pending"                  // 达标后待交付
	SettlementStatusProcessed SettlementStatus = "processed"                // 已交付，创作者可提款
	SettlementStatusFailed    SettlementStatus = "failed"                   // 结算失败
	SettlementStatusRetained  SettlementStatus = "retained_failed_delivery" // 超时未交付，平台保留手续费
	SettlementStatusCancelled SettlementStatus = "cancelled"                // 话题取消，不收取手续费
)

// TableName 自定义表名
func (SettlementRecord) TableName() string {
	return "settlement_record"
}
