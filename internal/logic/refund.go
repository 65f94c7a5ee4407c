package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jaylenmareko/topic-funding-sub000/internal/model"
	"github.com/jaylenmareko/topic-funding-sub000/internal/payment"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// gatewayCallTimeout 单次退款调用的超时上限，防止外部网关拖垮整个事务
const gatewayCallTimeout = 15 * time.Second

// ProcessRefund 对一笔已入账出资按比例退款
// 每笔出资至多一条退款记录：已成功的直接返回，之前失败的复用记录重试。
// 网关调用失败时落地失败记录并返回 ErrRefundFailed，调用方决定是否继续处理其余出资。
func ProcessRefund(tx *gorm.DB, gw payment.Gateway, topic *model.Topic, contribution *model.Contribution, refundPercent decimal.Decimal, reason string) (*model.RefundRecord, error) {
	record := model.RefundRecord{}
	err := tx.Where("contribution_id = ?", contribution.Id).First(&record).Error
	switch {
	case err == nil:
		if record.Status == model.RefundStatusSuccess {
			return &record, nil
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		record = model.RefundRecord{
			TopicId:        topic.Id,
			ContributionId: contribution.Id,
			OriginalAmount: contribution.Amount,
		}
	default:
		return nil, fmt.Errorf("加载退款记录失败: %w", err)
	}

	refundAmount, feeKept := SplitRefund(contribution.Amount, refundPercent)
	record.RefundAmount = refundAmount
	record.RefundPercent = refundPercent
	record.PlatformFeeKept = feeKept
	record.RefundReason = reason

	ctx, cancel := context.WithTimeout(context.Background(), gatewayCallTimeout)
	defer cancel()

	refundId, gwErr := gw.IssueRefund(ctx, contribution.PaymentId, refundAmount)
	if gwErr != nil {
		record.Status = model.RefundStatusFailed
		record.FailReason = gwErr.Error()
		if err := tx.Save(&record).Error; err != nil {
			return nil, fmt.Errorf("写入退款记录失败: %w", err)
		}
		return &record, fmt.Errorf("%w: %v", ErrRefundFailed, gwErr)
	}

	record.Status = model.RefundStatusSuccess
	record.ExternalRefundId = refundId
	record.FailReason = ""
	if err := tx.Save(&record).Error; err != nil {
		return nil, fmt.Errorf("写入退款记录失败: %w", err)
	}

	newStatus := model.PaymentStatusRefunded
	if refundPercent.LessThan(hundred) {
		newStatus = model.PaymentStatusRefunded90
	}
	if err := tx.Model(&model.Contribution{}).
		Where("id = ?", contribution.Id).
		Update("payment_status", newStatus).Error; err != nil {
		return nil, fmt.Errorf("更新出资状态失败: %w", err)
	}
	contribution.PaymentStatus = newStatus

	return &record, nil
}
