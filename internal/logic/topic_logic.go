package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/jaylenmareko/topic-funding-sub000/internal/model"
	"gorm.io/gorm"
)

// TopicLogic 话题查询
type TopicLogic struct {
	db *gorm.DB
}

// NewTopicLogic 创建话题查询
func NewTopicLogic(db *gorm.DB) *TopicLogic {
	return &TopicLogic{db: db}
}

// GetTopics 获取话题列表
func (t *TopicLogic) GetTopics(status string, page, pageSize int) ([]model.Topic, int64, error) {
	var topics []model.Topic
	var total int64

	query := t.db.Model(&model.Topic{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取话题总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&topics).Error; err != nil {
		return nil, 0, fmt.Errorf("获取话题列表失败: %w", err)
	}

	return topics, total, nil
}

// GetTopic 获取话题详情
func (t *TopicLogic) GetTopic(id int64) (*model.Topic, error) {
	var topic model.Topic
	if err := t.db.First(&topic, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopicNotFound
		}
		return nil, fmt.Errorf("获取话题详情失败: %w", err)
	}
	return &topic, nil
}

// GetTopicStats 获取话题统计信息
func (t *TopicLogic) GetTopicStats(id int64) (map[string]interface{}, error) {
	topic, err := t.GetTopic(id)
	if err != nil {
		return nil, err
	}

	var contributionCount int64
	if err := t.db.Model(&model.Contribution{}).
		Where("topic_id = ?", id).
		Count(&contributionCount).Error; err != nil {
		return nil, fmt.Errorf("获取出资笔数失败: %w", err)
	}

	var contributorCount int64
	if err := t.db.Model(&model.Contribution{}).
		Where("topic_id = ? AND user_id IS NOT NULL", id).
		Distinct("user_id").
		Count(&contributorCount).Error; err != nil {
		return nil, fmt.Errorf("获取出资人数失败: %w", err)
	}

	// 筹资进度
	fundingPercentage := float64(0)
	if topic.FundingThreshold > 0 {
		fundingPercentage = float64(topic.CurrentFunding) / float64(topic.FundingThreshold) * 100
	}

	// 交付剩余时间，仅对等待交付的话题有意义
	remainingTime := time.Duration(0)
	if topic.Status == model.TopicStatusFunded && topic.ContentDeadline != nil && time.Now().Before(*topic.ContentDeadline) {
		remainingTime = time.Until(*topic.ContentDeadline)
	}

	return map[string]interface{}{
		"topic_id":           topic.Id,
		"current_funding":    topic.CurrentFunding,
		"funding_threshold":  topic.FundingThreshold,
		"funding_percentage": fundingPercentage,
		"contributor_count":  contributorCount,
		"contribution_count": contributionCount,
		"remaining_time":     remainingTime.String(),
		"status":             topic.Status,
	}, nil
}

// GetTopicContributions 获取话题出资记录
func (t *TopicLogic) GetTopicContributions(topicId int64, page, pageSize int) ([]model.Contribution, int64, error) {
	var contributions []model.Contribution
	var total int64

	if err := t.db.Model(&model.Contribution{}).Where("topic_id = ?", topicId).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := t.db.Where("topic_id = ?", topicId).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&contributions).Error; err != nil {
		return nil, 0, err
	}

	return contributions, total, nil
}
