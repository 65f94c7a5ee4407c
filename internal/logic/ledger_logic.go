package logic

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jaylenmareko/topic-funding-sub000/internal/config"
	"github.com/jaylenmareko/topic-funding-sub000/internal/model"
	"github.com/jaylenmareko/topic-funding-sub000/internal/notify"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerLogic 筹资账本
// 所有出资入账的唯一入口：网关回调、后台补账都必须走这里，保证幂等与状态机不变量
type LedgerLogic struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewLedgerLogic 创建筹资账本
func NewLedgerLogic(db *gorm.DB, cfg *config.Config) *LedgerLogic {
	return &LedgerLogic{db: db, cfg: cfg}
}

// ApplyResult 入账结果
type ApplyResult struct {
	ContributionId   int64 `json:"contribution_id"`
	CurrentFunding   int64 `json:"current_funding"`
	CrossedThreshold bool  `json:"crossed_threshold"`
}

// CreateTopicRequest 首笔出资建题请求（topic_creation 类型支付）
type CreateTopicRequest struct {
	CreatorId        int64
	Title            string
	Description      string
	FundingThreshold int64
	UserId           *int64
	Amount           int64
	PaymentId        string
}

// ApplyContribution 记录一笔已完成的外部支付
// 原子操作：写出资记录、累加话题筹资额、触发达标检查；payment_id 唯一索引保证同一支付至多入账一次
func (l *LedgerLogic) ApplyContribution(topicId int64, userId *int64, amount int64, paymentId string) (*ApplyResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: 出资金额必须大于0", ErrValidation)
	}
	if strings.TrimSpace(paymentId) == "" {
		return nil, fmt.Errorf("%w: 支付单号不能为空", ErrValidation)
	}

	tx := l.db.Begin()
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
	if err := LockForUpdate(tx).First(&topic, topicId).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopicNotFound
		}
		return nil, fmt.Errorf("加载话题失败: %w", err)
	}

	if topic.Status.IsTerminal() {
		tx.Rollback()
		return nil, ErrTopicClosed
	}

	result, err := l.applyLocked(tx, &topic, userId, amount, paymentId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("提交入账事务失败: %w", err)
	}

	return result, nil
}

// CreateTopicWithSeed 首笔出资建题
// 话题与首笔出资在同一事务内创建，随后立即做达标检查：种子出资足够大时话题一出生即达标
func (l *LedgerLogic) CreateTopicWithSeed(req CreateTopicRequest) (*model.Topic, *ApplyResult, error) {
	if err := l.validateCreateTopic(&req); err != nil {
		return nil, nil, err
	}

	tx := l.db.Begin()
	if tx.Error != nil {
		return nil, nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	topic := model.Topic{
		Title:              strings.TrimSpace(req.Title),
		Description:        req.Description,
		CreatorId:          req.CreatorId,
		FundingThreshold:   req.FundingThreshold,
		CurrentFunding:     0,
		Status:             model.TopicStatusActive,
		PlatformFeePercent: decimal.NewFromFloat(l.cfg.Funding.DefaultFeePercent),
	}
	if err := tx.Create(&topic).Error; err != nil {
		tx.Rollback()
		return nil, nil, fmt.Errorf("创建话题失败: %w", err)
	}

	result, err := l.applyLocked(tx, &topic, req.UserId, req.Amount, req.PaymentId)
	if err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, fmt.Errorf("提交建题事务失败: %w", err)
	}

	return &topic, result, nil
}

// applyLocked 在已持有话题行锁的事务内完成入账
func (l *LedgerLogic) applyLocked(tx *gorm.DB, topic *model.Topic, userId *int64, amount int64, paymentId string) (*ApplyResult, error) {
	contribution := model.Contribution{
		TopicId:       topic.Id,
		UserId:        userId,
		Amount:        amount,
		PaymentId:     paymentId,
		PaymentStatus: model.PaymentStatusCompleted,
		ContributedAt: time.Now(),
	}
	if err := tx.Create(&contribution).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicatePayment
		}
		return nil, fmt.Errorf("写入出资记录失败: %w", err)
	}

	oldFunding := topic.CurrentFunding
	if err := tx.Model(topic).Update("current_funding", gorm.Expr("current_funding + ?", amount)).Error; err != nil {
		return nil, fmt.Errorf("更新话题筹资额失败: %w", err)
	}
	topic.CurrentFunding = oldFunding + amount

	if err := l.recordMilestones(tx, topic, oldFunding); err != nil {
		return nil, err
	}

	crossed := false
	if topic.Status == model.TopicStatusActive && topic.CurrentFunding >= topic.FundingThreshold {
		if err := markFundedLocked(tx, l.cfg, topic, time.Now()); err != nil {
			return nil, err
		}
		crossed = true
	}

	return &ApplyResult{
		ContributionId:   contribution.Id,
		CurrentFunding:   topic.CurrentFunding,
		CrossedThreshold: crossed,
	}, nil
}

// recordMilestones 记录本次入账跨过的筹资进度节点
// (topic_id, percent) 唯一索引 + DoNothing 保证每个节点至多通知一次
func (l *LedgerLogic) recordMilestones(tx *gorm.DB, topic *model.Topic, oldFunding int64) error {
	for _, pct := range l.milestones() {
		mark := int64(pct)
		// 节点线: threshold * pct / 100，用整数叉乘避免浮点
		if oldFunding*100 >= topic.FundingThreshold*mark {
			continue // 之前已过线
		}
		if topic.CurrentFunding*100 < topic.FundingThreshold*mark {
			continue // 本次仍未过线
		}

		milestone := model.FundingMilestone{TopicId: topic.Id, Percent: pct}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&milestone)
		if res.Error != nil {
			return fmt.Errorf("写入里程碑记录失败: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			continue // 其他入账已通知过该节点
		}

		if err := notify.Enqueue(tx, notify.CreatorRecipient(topic.CreatorId), notify.EventMilestoneReached, map[string]interface{}{
			"topic_id":          topic.Id,
			"topic_title":       topic.Title,
			"percent":           pct,
			"current_funding":   topic.CurrentFunding,
			"funding_threshold": topic.FundingThreshold,
		}); err != nil {
			return err
		}
	}
	return nil
}

// milestones 进度节点配置，默认 25/50/75/90/95
func (l *LedgerLogic) milestones() []int {
	if len(l.cfg.Funding.Milestones) > 0 {
		return l.cfg.Funding.Milestones
	}
	return []int{25, 50, 75, 90, 95}
}

// validateCreateTopic 校验建题请求
func (l *LedgerLogic) validateCreateTopic(req *CreateTopicRequest) error {
	if req.CreatorId == 0 {
		return fmt.Errorf("%w: 创作者ID不能为空", ErrValidation)
	}
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("%w: 话题标题不能为空", ErrValidation)
	}
	if req.FundingThreshold <= 0 {
		return fmt.Errorf("%w: 筹资目标必须大于0", ErrValidation)
	}
	if req.Amount <= 0 {
		return fmt.Errorf("%w: 出资金额必须大于0", ErrValidation)
	}
	if strings.TrimSpace(req.PaymentId) == "" {
		return fmt.Errorf("%w: 支付单号不能为空", ErrValidation)
	}
	return nil
}
