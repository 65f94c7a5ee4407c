package handler

import (
	"time"

	"github.com/jaylenmareko/topic-funding-sub000/internal/model"
)

// 话题相关响应模型

// TopicResponse 话题响应模型
type TopicResponse struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	CreatorId        int64      `json:"creatorId"`
	FundingThreshold int64      `json:"fundingThreshold"`
	CurrentFunding   int64      `json:"currentFunding"`
	Status           string     `json:"status"`
	FundedAt         *time.Time `json:"fundedAt"`
	ContentDeadline  *time.Time `json:"contentDeadline"`
	ContentUrl       string     `json:"contentUrl"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// ToTopicResponse 转换话题响应
func ToTopicResponse(t *model.Topic) TopicResponse {
	return TopicResponse{
		ID:               t.Id,
		Title:            t.Title,
		Description:      t.Description,
		CreatorId:        t.CreatorId,
		FundingThreshold: t.FundingThreshold,
		CurrentFunding:   t.CurrentFunding,
		Status:           string(t.Status),
		FundedAt:         t.FundedAt,
		ContentDeadline:  t.ContentDeadline,
		ContentUrl:       t.ContentUrl,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

// ToTopicResponseList 转换话题响应列表
func ToTopicResponseList(topics []model.Topic) []TopicResponse {
	out := make([]TopicResponse, 0, len(topics))
	for i := range topics {
		out = append(out, ToTopicResponse(&topics[i]))
	}
	return out
}

// GetTopicsResponse 获取话题列表响应
type GetTopicsResponse struct {
	Topics     []TopicResponse `json:"topics"`
	Pagination Pagination      `json:"pagination"`
}

// GetTopicResponse 获取话题详情响应
type GetTopicResponse struct {
	Topic TopicResponse `json:"topic"`
}

// GetTopicStatsResponse 获取话题统计响应
type GetTopicStatsResponse struct {
	Stats map[string]interface{} `json:"stats"`
}

// 出资记录相关响应模型

// ContributionResponse 出资记录响应模型
type ContributionResponse struct {
	ID            int64     `json:"id"`
	TopicId       int64     `json:"topicId"`
	UserId        *int64    `json:"userId"`
	Amount        int64     `json:"amount"`
	PaymentStatus string    `json:"paymentStatus"`
	ContributedAt time.Time `json:"contributedAt"`
}

// ToContributionResponseList 转换出资记录响应列表
func ToContributionResponseList(contributions []model.Contribution) []ContributionResponse {
	out := make([]ContributionResponse, 0, len(contributions))
	for _, c := range contributions {
		out = append(out, ContributionResponse{
			ID:            c.Id,
			TopicId:       c.TopicId,
			UserId:        c.UserId,
			Amount:        c.Amount,
			PaymentStatus: string(c.PaymentStatus),
			ContributedAt: c.ContributedAt,
		})
	}
	return out
}

// GetTopicContributionsResponse 获取话题出资记录响应
type GetTopicContributionsResponse struct {
	Records    []ContributionResponse `json:"records"`
	Pagination Pagination             `json:"pagination"`
}

// 退款记录相关响应模型

// RefundRecordResponse 退款记录响应模型
type RefundRecordResponse struct {
	ID              int64     `json:"id"`
	TopicId         int64     `json:"topicId"`
	ContributionId  int64     `json:"contributionId"`
	OriginalAmount  int64     `json:"originalAmount"`
	RefundAmount    int64     `json:"refundAmount"`
	PlatformFeeKept int64     `json:"platformFeeKept"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ToRefundRecordResponseList 转换退款记录响应列表
func ToRefundRecordResponseList(refunds []model.RefundRecord) []RefundRecordResponse {
	out := make([]RefundRecordResponse, 0, len(refunds))
	for _, r := range refunds {
		out = append(out, RefundRecordResponse{
			ID:              r.Id,
			TopicId:         r.TopicId,
			ContributionId:  r.ContributionId,
			OriginalAmount:  r.OriginalAmount,
			RefundAmount:    r.RefundAmount,
			PlatformFeeKept: r.PlatformFeeKept,
			Status:          string(r.Status),
			CreatedAt:       r.CreatedAt,
		})
	}
	return out
}

// GetTopicRefundsResponse 获取话题退款记录响应
type GetTopicRefundsResponse struct {
	Refunds    []RefundRecordResponse `json:"refunds"`
	Pagination Pagination             `json:"pagination"`
}

// GetRefundStatsResponse 获取退款统计响应
type GetRefundStatsResponse struct {
	Stats map[string]interface{} `json:"stats"`
}

// ApplyContributionResponse 入账结果响应
type ApplyContributionResponse struct {
	ContributionId   int64 `json:"contributionId"`
	CurrentFunding   int64 `json:"currentFunding"`
	CrossedThreshold bool  `json:"crossedThreshold"`
	TopicId          int64 `json:"topicId"`
}
