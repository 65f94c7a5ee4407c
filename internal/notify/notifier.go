package notify

import (
	"encoding/json"
	"fmt"

	"github.com/jaylenmareko/topic-funding-sub000/internal/model"
	"gorm.io/gorm"
)

// 通知事件类型
const (
	EventTopicFundedCreator     = "topic_funded_creator"     // 话题达标，通知创作者
	EventTopicFundedContributor = "topic_funded_contributor" // 话题达标，通知出资人
	EventContentDelivered       = "content_delivered"        // 内容已交付
	EventTopicFailedCreator     = "topic_failed_creator"     // 超时未交付，通知创作者
	EventTopicFailedContributor = "topic_failed_contributor" // 超时未交付，通知出资人
	EventTopicCancelled         = "topic_cancelled"          // 话题取消
	EventMilestoneReached       = "milestone_reached"        // 筹资进度节点
	EventAdminSweepSummary      = "admin_sweep_summary"      // 清算汇总
)

// CreatorRecipient 创作者的通知地址
func CreatorRecipient(creatorId int64) string {
	return fmt.Sprintf("creator:%d", creatorId)
}

// UserRecipient 出资人的通知地址
func UserRecipient(userId int64) string {
	return fmt.Sprintf("user:%d", userId)
}

// Enqueue 将通知写入发件箱
// 与业务变更同事务写入；投递由派发器异步完成，失败不影响业务
func Enqueue(db *gorm.DB, recipient, eventType string, payload map[string]interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification payload failed: %w", err)
	}

	notification := model.Notification{
		Recipient: recipient,
		EventType: eventType,
		Payload:   string(data),
		Status:    model.NotificationStatusPending,
	}

	return db.Create(&notification).Error
}
