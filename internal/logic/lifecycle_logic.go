package logic

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jaylenmareko/topic-funding-sub000/internal/authz"
	"github.com/jaylenmareko/topic-funding-sub000/internal/config"
	"github.com/jaylenmareko/topic-funding-sub000/internal/logger"
	"github.com/jaylenmareko/topic-funding-sub000/internal/model"
	"github.com/jaylenmareko/topic-funding-sub000/internal/notify"
	"github.com/jaylenmareko/topic-funding-sub000/internal/payment"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LifecycleLogic 话题生命周期状态机
// 状态字段只允许从这里变更: active → funded → completed|failed,
// funded ↔ on_hold, active|funded|on_hold → cancelled
type LifecycleLogic struct {
	db      *gorm.DB
	cfg     *config.Config
	gateway payment.Gateway
	policy  authz.Policy
}

// NewLifecycleLogic 创建生命周期状态机
func NewLifecycleLogic(db *gorm.DB, cfg *config.Config, gateway payment.Gateway, policy authz.Policy) *LifecycleLogic {
	return &LifecycleLogic{db: db, cfg: cfg, gateway: gateway, policy: policy}
}

// DeliverContent 创作者在截止时间前提交内容，funded → completed
func (l *LifecycleLogic) DeliverContent(actorId, topicId int64, contentUrl string) error {
	if strings.TrimSpace(contentUrl) == "" {
		return fmt.Errorf("%w: 内容链接不能为空", ErrValidation)
	}

	return l.withLockedTopic(actorId, topicId, func(tx *gorm.DB, topic *model.Topic) error {
		if topic.Status != model.TopicStatusFunded {
			return ErrInvalidTransition
		}
		now := time.Now()
		if topic.ContentDeadline != nil && now.After(*topic.ContentDeadline) {
			return ErrDeadlinePassed
		}

		updates := map[string]interface{}{
			"status":       model.TopicStatusCompleted,
			"completed_at": &now,
			"content_url":  strings.TrimSpace(contentUrl),
		}
		if err := tx.Model(topic).Updates(updates).Error; err != nil {
			return fmt.Errorf("更新话题状态失败: %w", err)
		}
		topic.Status = model.TopicStatusCompleted
		topic.CompletedAt = &now
		topic.ContentUrl = strings.TrimSpace(contentUrl)

		// 结算转为可支付
		if err := tx.Model(&model.SettlementRecord{}).
			Where("topic_id = ?", topic.Id).
			Updates(map[string]interface{}{
				"status":     model.SettlementStatusProcessed,
				"settled_at": &now,
			}).Error; err != nil {
			return fmt.Errorf("更新结算记录失败: %w", err)
		}

		return notifyContributors(tx, topic, notify.EventContentDelivered, map[string]interface{}{
			"topic_id":    topic.Id,
			"topic_title": topic.Title,
			"content_url": topic.ContentUrl,
		})
	})
}

// Hold 创作者挂起话题，funded → on_hold，截止时钟暂停
func (l *LifecycleLogic) Hold(actorId, topicId int64, reason string) error {
	return l.withLockedTopic(actorId, topicId, func(tx *gorm.DB, topic *model.Topic) error {
		if topic.Status != model.TopicStatusFunded {
			return ErrInvalidTransition
		}
		now := time.Now()
		updates := map[string]interface{}{
			"status":      model.TopicStatusOnHold,
			"hold_reason": reason,
			"held_at":     &now,
		}
		if err := tx.Model(topic).Updates(updates).Error; err != nil {
			return fmt.Errorf("挂起话题失败: %w", err)
		}
		topic.Status = model.TopicStatusOnHold
		topic.HoldReason = reason
		topic.HeldAt = &now
		return nil
	})
}

// Resume 创作者恢复话题，on_hold → funded
// 截止时间重置为恢复时刻起一个完整交付窗口，而非沿用原截止时间
func (l *LifecycleLogic) Resume(actorId, topicId int64) error {
	return l.withLockedTopic(actorId, topicId, func(tx *gorm.DB, topic *model.Topic) error {
		if topic.Status != model.TopicStatusOnHold {
			return ErrInvalidTransition
		}
		deadline := time.Now().Add(deliveryWindow(l.cfg))
		updates := map[string]interface{}{
			"status":           model.TopicStatusFunded,
			"content_deadline": &deadline,
			"hold_reason":      "",
			"held_at":          nil,
		}
		if err := tx.Model(topic).Updates(updates).Error; err != nil {
			return fmt.Errorf("恢复话题失败: %w", err)
		}
		topic.Status = model.TopicStatusFunded
		topic.ContentDeadline = &deadline
		topic.HoldReason = ""
		topic.HeldAt = nil
		return nil
	})
}

// Cancel 创作者拒绝或管理员取消，active|funded|on_hold → cancelled
// 全部出资100%退款，平台不保留手续费；单笔退款失败不阻塞其余出资
func (l *LifecycleLogic) Cancel(actorId, topicId int64) error {
	return l.withLockedTopic(actorId, topicId, func(tx *gorm.DB, topic *model.Topic) error {
		switch topic.Status {
		case model.TopicStatusActive, model.TopicStatusFunded, model.TopicStatusOnHold:
		default:
			return ErrInvalidTransition
		}

		var contributions []model.Contribution
		if err := tx.Where("topic_id = ? AND payment_status = ?", topic.Id, model.PaymentStatusCompleted).
			Find(&contributions).Error; err != nil {
			return fmt.Errorf("加载出资记录失败: %w", err)
		}

		fullRefund := decimal.NewFromInt(100)
		for i := range contributions {
			if _, err := ProcessRefund(tx, l.gateway, topic, &contributions[i], fullRefund, "话题取消"); err != nil {
				if errors.Is(err, ErrRefundFailed) {
					logger.Error("Refund failed for contribution %d on cancelled topic %d: %v",
						contributions[i].Id, topic.Id, err)
					continue
				}
				return err
			}
		}

		if err := tx.Model(topic).Update("status", model.TopicStatusCancelled).Error; err != nil {
			return fmt.Errorf("取消话题失败: %w", err)
		}
		topic.Status = model.TopicStatusCancelled

		// 已达标话题的结算记录作废
		if err := tx.Model(&model.SettlementRecord{}).
			Where("topic_id = ?", topic.Id).
			Update("status", model.SettlementStatusCancelled).Error; err != nil {
			return fmt.Errorf("作废结算记录失败: %w", err)
		}

		payload := map[string]interface{}{
			"topic_id":    topic.Id,
			"topic_title": topic.Title,
		}
		if err := notify.Enqueue(tx, notify.CreatorRecipient(topic.CreatorId), notify.EventTopicCancelled, payload); err != nil {
			return err
		}
		return notifyContributors(tx, topic, notify.EventTopicCancelled, payload)
	})
}

// withLockedTopic 加锁加载话题、鉴权后执行变更，整体一个事务
func (l *LifecycleLogic) withLockedTopic(actorId, topicId int64, fn func(tx *gorm.DB, topic *model.Topic) error) error {
	tx := l.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var topic model.Topic
	if err := LockForUpdate(tx).First(&topic, topicId).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTopicNotFound
		}
		return fmt.Errorf("加载话题失败: %w", err)
	}

	if l.policy != nil && !l.policy.CanManageTopic(actorId, &topic) {
		tx.Rollback()
		return ErrPermissionDenied
	}

	if err := fn(tx, &topic); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("提交状态变更失败: %w", err)
	}
	return nil
}

// markFundedLocked 达标转移 active → funded，须在已持有话题行锁的事务内调用
// 对非active状态是无操作（幂等）；结算仅计算一次，由 fee_processed 守卫
func markFundedLocked(tx *gorm.DB, cfg *config.Config, topic *model.Topic, now time.Time) error {
	if topic.Status != model.TopicStatusActive {
		return nil
	}

	deadline := now.Add(deliveryWindow(cfg))
	updates := map[string]interface{}{
		"status":           model.TopicStatusFunded,
		"funded_at":        &now,
		"content_deadline": &deadline,
	}

	if !topic.FeeProcessed {
		feePercent := topic.PlatformFeePercent
		if feePercent.IsZero() {
			feePercent = decimal.NewFromFloat(cfg.Funding.DefaultFeePercent)
		}
		feeAmount, creatorAmount := ComputeSettlement(topic.CurrentFunding, feePercent)

		record := model.SettlementRecord{
			TopicId:       topic.Id,
			TotalFunding:  topic.CurrentFunding,
			FeePercent:    feePercent,
			FeeAmount:     feeAmount,
			CreatorAmount: creatorAmount,
			Status:        model.SettlementStatusPending,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("写入结算记录失败: %w", err)
		}

		updates["platform_fee_percent"] = feePercent
		updates["platform_fee_amount"] = feeAmount
		updates["creator_payout_amount"] = creatorAmount
		updates["fee_processed"] = true
		topic.PlatformFeePercent = feePercent
		topic.PlatformFeeAmount = feeAmount
		topic.CreatorPayout = creatorAmount
		topic.FeeProcessed = true
	}

	if err := tx.Model(topic).Updates(updates).Error; err != nil {
		return fmt.Errorf("更新话题状态失败: %w", err)
	}
	topic.Status = model.TopicStatusFunded
	topic.FundedAt = &now
	topic.ContentDeadline = &deadline

	payload := map[string]interface{}{
		"topic_id":         topic.Id,
		"topic_title":      topic.Title,
		"current_funding":  topic.CurrentFunding,
		"content_deadline": deadline,
	}
	if err := notify.Enqueue(tx, notify.CreatorRecipient(topic.CreatorId), notify.EventTopicFundedCreator, payload); err != nil {
		return err
	}
	return notifyContributors(tx, topic, notify.EventTopicFundedContributor, payload)
}

// notifyContributors 给话题的全部实名出资人各入队一条通知
func notifyContributors(tx *gorm.DB, topic *model.Topic, eventType string, payload map[string]interface{}) error {
	var userIds []int64
	if err := tx.Model(&model.Contribution{}).
		Where("topic_id = ? AND user_id IS NOT NULL", topic.Id).
		Distinct().
		Pluck("user_id", &userIds).Error; err != nil {
		return fmt.Errorf("加载出资人列表失败: %w", err)
	}

	for _, uid := range userIds {
		if err := notify.Enqueue(tx, notify.UserRecipient(uid), eventType, payload); err != nil {
			return err
		}
	}
	return nil
}

// deliveryWindow 达标后的交付窗口，默认48小时
func deliveryWindow(cfg *config.Config) time.Duration {
	hours := cfg.Funding.DeliveryWindowHours
	if hours <= 0 {
		hours = 48
	}
	return time.Duration(hours) * time.Hour
}
