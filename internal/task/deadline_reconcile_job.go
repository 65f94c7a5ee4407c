package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jaylenmareko/topic-funding-sub000/internal/config"
	"github.com/jaylenmareko/topic-funding-sub000/internal/logger"
	"github.com/jaylenmareko/topic-funding-sub000/internal/logic"
	"github.com/jaylenmareko/topic-funding-sub000/internal/model"
	"github.com/jaylenmareko/topic-funding-sub000/internal/notify"
	"github.com/jaylenmareko/topic-funding-sub000/internal/payment"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DeadlineReconcileJob 截止清算任务
// 周期扫描已达标但逾期未交付的话题，按90/10比例给出资人退款并将话题置为failed
type DeadlineReconcileJob struct {
	db      *gorm.DB
	config  *config.Config
	gateway payment.Gateway
}

// sweepOutcome 单个话题的清算结果
type sweepOutcome struct {
	skipped       bool
	refundsCount  int
	failedCount   int
	totalRefunded int64
}

// NewDeadlineReconcileJob 创建截止清算任务
func NewDeadlineReconcileJob(db *gorm.DB, cfg *config.Config, gateway payment.Gateway) *DeadlineReconcileJob {
	return &DeadlineReconcileJob{
		db:      db,
		config:  cfg,
		gateway: gateway,
	}
}

// GetName 获取任务名称
func (j *DeadlineReconcileJob) GetName() string {
	return "deadline_reconciler"
}

// GetSchedule 获取调度配置
func (j *DeadlineReconcileJob) GetSchedule() gocron.JobDefinition {
	interval := j.config.Task.SweepIntervalSeconds
	if interval <= 0 {
		interval = 900 // 15分钟
	}
	return gocron.DurationJob(time.Duration(interval) * time.Second)
}

// Execute 执行任务
// 每个话题独立事务：单个话题清算失败只记日志，不影响其余话题
func (j *DeadlineReconcileJob) Execute() {
	logger.Info("Starting deadline reconcile task")

	now := time.Now()
	var overdue []model.Topic
	err := j.db.Where("status = ? AND content_deadline IS NOT NULL AND content_deadline < ? AND content_url = ''",
		model.TopicStatusFunded, now).
		Find(&overdue).Error
	if err != nil {
		logger.Error("Failed to fetch overdue topics: %v", err)
		j.notifyAdminFailure(err)
		return
	}

	processedCount := 0
	totalRefunds := 0
	totalRefunded := int64(0)

	for i := range overdue {
		outcome, err := j.reconcileTopic(overdue[i].Id)
		if err != nil {
			logger.Error("Failed to reconcile topic %d: %v", overdue[i].Id, err)
			continue
		}
		if outcome.skipped {
			continue
		}

		logger.Info("Reconciled topic %d: refunds=%d failed=%d total_refunded=%d",
			overdue[i].Id, outcome.refundsCount, outcome.failedCount, outcome.totalRefunded)
		processedCount++
		totalRefunds += outcome.refundsCount
		totalRefunded += outcome.totalRefunded
	}

	if processedCount > 0 {
		j.notifyAdminSummary(processedCount, totalRefunds, totalRefunded)
	}

	logger.Info("Deadline reconcile task completed. Processed %d topics", processedCount)
}

// reconcileTopic 清算单个逾期话题，整体一个事务
func (j *DeadlineReconcileJob) reconcileTopic(topicId int64) (*sweepOutcome, error) {
	outcome := &sweepOutcome{}

	tx := j.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var topic model.Topic
	if err := logic.LockForUpdate(tx).First(&topic, topicId).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("加载话题失败: %w", err)
	}

	now := time.Now()

	// 拿到行锁后重新校验：并发的交付/挂起/取消可能已经改变状态
	if topic.Status != model.TopicStatusFunded ||
		topic.ContentUrl != "" ||
		topic.ContentDeadline == nil ||
		now.Before(*topic.ContentDeadline) {
		tx.Rollback()
		outcome.skipped = true
		return outcome, nil
	}

	// 防重窗口内已清算过则跳过，避免重复退款
	guarded, err := j.sweptRecently(tx, topicId, now)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if guarded {
		tx.Rollback()
		outcome.skipped = true
		return outcome, nil
	}

	var contributions []model.Contribution
	if err := tx.Where("topic_id = ? AND payment_status = ?", topicId, model.PaymentStatusCompleted).
		Find(&contributions).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("加载出资记录失败: %w", err)
	}

	refundPercent := decimal.NewFromFloat(j.config.Funding.FailRefundPercent)
	if refundPercent.IsZero() {
		refundPercent = decimal.NewFromInt(90)
	}

	refundedUsers := make([]*model.Contribution, 0, len(contributions))
	for i := range contributions {
		record, err := logic.ProcessRefund(tx, j.gateway, &topic, &contributions[i], refundPercent, "超时未交付")
		if err != nil {
			if errors.Is(err, logic.ErrRefundFailed) {
				// 单笔退款失败不阻塞其余出资人
				outcome.failedCount++
				continue
			}
			tx.Rollback()
			return nil, err
		}
		outcome.refundsCount++
		outcome.totalRefunded += record.RefundAmount
		refundedUsers = append(refundedUsers, &contributions[i])
	}

	if err := tx.Model(&topic).Update("status", model.TopicStatusFailed).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("更新话题状态失败: %w", err)
	}

	// 平台保留手续费作为交付保障服务的对价，不退还给创作者
	if err := tx.Model(&model.SettlementRecord{}).
		Where("topic_id = ?", topicId).
		Update("status", model.SettlementStatusRetained).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("更新结算记录失败: %w", err)
	}

	sweep := model.SweepRecord{
		TopicId:       topicId,
		RefundsCount:  outcome.refundsCount,
		FailedCount:   outcome.failedCount,
		TotalRefunded: outcome.totalRefunded,
		SweptAt:       now,
	}
	if err := tx.Create(&sweep).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("写入清算记录失败: %w", err)
	}

	if err := j.enqueueNotifications(tx, &topic, refundedUsers); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("提交清算事务失败: %w", err)
	}

	return outcome, nil
}

// sweptRecently 检查话题是否在防重窗口内清算过
func (j *DeadlineReconcileJob) sweptRecently(tx *gorm.DB, topicId int64, now time.Time) (bool, error) {
	guardHours := j.config.Funding.SweepGuardHours
	if guardHours <= 0 {
		guardHours = 24
	}
	cutoff := now.Add(-time.Duration(guardHours) * time.Hour)

	var count int64
	err := tx.Model(&model.SweepRecord{}).
		Where("topic_id = ? AND swept_at > ?", topicId, cutoff).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("检查清算记录失败: %w", err)
	}
	return count > 0, nil
}

// enqueueNotifications 给创作者和成功退款的出资人入队通知
func (j *DeadlineReconcileJob) enqueueNotifications(tx *gorm.DB, topic *model.Topic, refunded []*model.Contribution) error {
	if err := notify.Enqueue(tx, notify.CreatorRecipient(topic.CreatorId), notify.EventTopicFailedCreator, map[string]interface{}{
		"topic_id":    topic.Id,
		"topic_title": topic.Title,
	}); err != nil {
		return err
	}

	for _, c := range refunded {
		if c.UserId == nil {
			continue
		}
		if err := notify.Enqueue(tx, notify.UserRecipient(*c.UserId), notify.EventTopicFailedContributor, map[string]interface{}{
			"topic_id":        topic.Id,
			"topic_title":     topic.Title,
			"original_amount": c.Amount,
		}); err != nil {
			return err
		}
	}
	return nil
}

// notifyAdminSummary 清算汇总通知
func (j *DeadlineReconcileJob) notifyAdminSummary(topics, refunds int, totalRefunded int64) {
	err := notify.Enqueue(j.db, j.config.Notify.AdminRecipient, notify.EventAdminSweepSummary, map[string]interface{}{
		"topics_processed": topics,
		"refunds_count":    refunds,
		"total_refunded":   totalRefunded,
	})
	if err != nil {
		logger.Error("Failed to enqueue admin sweep summary: %v", err)
	}
}

// notifyAdminFailure 整轮清算失败告警，下一轮调度自然重试
func (j *DeadlineReconcileJob) notifyAdminFailure(cause error) {
	err := notify.Enqueue(j.db, j.config.Notify.AdminRecipient, notify.EventAdminSweepSummary, map[string]interface{}{
		"error": cause.Error(),
	})
	if err != nil {
		logger.Error("Failed to enqueue admin sweep failure alert: %v", err)
	}
}
