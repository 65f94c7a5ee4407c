package model

import (
	"time"
)

// SweepRecord 截止清算的处理记录，24小时防重窗口的依据
type SweepRecord struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	TopicId       int64 `json:"topic_id" gorm:"not null;index"`
	RefundsCount  int   `json:"refunds_count" gorm:"default:0"`
	FailedCount   int   `json:"failed_count" gorm:"default:0"`
	TotalRefunded int64 `json:"total_refunded" gorm:"default:0"`

	SweptAt time.Time `json:"swept_at" gorm:"not null;index"`
}

// TableName 自定义表名
func (SweepRecord) TableName() string {
	return "sweep_record"
}
