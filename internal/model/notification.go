package model

import (
	"time"
)

// Notification 通知发件箱
// 业务事务内写入，由派发器异步投递，失败可重试，不影响状态变更
type Notification struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Recipient string `json:"recipient" gorm:"not null"`
	EventType string `json:"event_type" gorm:"not null;index"`
	Payload   string `json:"payload" gorm:"type:text"`

	Status    NotificationStatus `json:"status" gorm:"default:'pending';index"`
	Attempts  int                `json:"attempts" gorm:"default:0"`
	LastError string             `json:"last_error" gorm:"type:text"`
	SentAt    *time.Time         `json:"sent_at"`
}

// NotificationStatus 通知状态
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending" // 待投递
	NotificationStatusSent    NotificationStatus = "sent"    // 已投递
	NotificationStatusFailed  NotificationStatus = "failed"  // 重试耗尽
)

// TableName 自定义表名
func (Notification) TableName() string {
	return "notification"
}
