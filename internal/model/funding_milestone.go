package model

import (
	"time"
)

// FundingMilestone 筹资里程碑触达记录
// (topic_id, percent) 唯一索引保证每个里程碑最多通知一次
type FundingMilestone struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	TopicId int64 `json:"topic_id" gorm:"not null;uniqueIndex:idx_topic_percent"`
	Percent int   `json:"percent" gorm:"not null;uniqueIndex:idx_topic_percent"` // 25/50/75/90/95
}

// TableName 自定义表名
func (FundingMilestone) TableName() string {
	return "funding_milestone"
}
