package logic

import (
	"testing"
	"time"

	"github.com/jaylenmareko/topic-funding-sub000/internal/authz"
	"github.com/jaylenmareko/topic-funding-sub000/internal/model"
	"github.com/jaylenmareko/topic-funding-sub000/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testCreatorId = int64(42)

var paymentSeq int

// nextPaymentId 跨用例递增的支付单号，避免唯一索引冲突
func nextPaymentId() string {
	paymentSeq++
	return paymentId(10000 + paymentSeq)
}

// newFundedTopic 建一个已达标、等待交付的话题
func newFundedTopic(t *testing.T, db *gorm.DB, threshold int64, seeds ...int64) *model.Topic {
	t.Helper()
	ledger := NewLedgerLogic(db, testConfig())

	topic, _, err := ledger.CreateTopicWithSeed(CreateTopicRequest{
		CreatorId:        testCreatorId,
		Title:            "待交付话题",
		FundingThreshold: threshold,
		UserId:           ptrInt64(100),
		Amount:           seeds[0],
		PaymentId:        nextPaymentId(),
	})
	require.NoError(t, err)

	for i, amount := range seeds[1:] {
		_, err := ledger.ApplyContribution(topic.Id, ptrInt64(int64(101+i)), amount, nextPaymentId())
		require.NoError(t, err)
	}

	var got model.Topic
	require.NoError(t, db.First(&got, topic.Id).Error)
	require.Equal(t, model.TopicStatusFunded, got.Status)
	return &got
}

func newLifecycle(db *gorm.DB, gw *fakeGateway) *LifecycleLogic {
	return NewLifecycleLogic(db, testConfig(), gw, authz.CreatorPolicy{})
}

func TestDeliverContent(t *testing.T) {
	t.Run("窗口内交付，funded转completed", func(t *testing.T) {
		db := newTestDB(t)
		lifecycle := newLifecycle(db, &fakeGateway{})
		topic := newFundedTopic(t, db, 10000, 6000, 5000)

		err := lifecycle.DeliverContent(testCreatorId, topic.Id, "https://video.example.com/v/1")
		require.NoError(t, err)

		var got model.Topic
		require.NoError(t, db.First(&got, topic.Id).Error)
		assert.Equal(t, model.TopicStatusCompleted, got.Status)
		assert.Equal(t, "https://video.example.com/v/1", got.ContentUrl)
		require.NotNil(t, got.CompletedAt)

		var record model.SettlementRecord
		require.NoError(t, db.Where("topic_id = ?", topic.Id).First(&record).Error)
		assert.Equal(t, model.SettlementStatusProcessed, record.Status)
		require.NotNil(t, record.SettledAt)

		// 出资人收到交付通知
		var count int64
		require.NoError(t, db.Model(&model.Notification{}).
			Where("event_type = ?", notify.EventContentDelivered).
			Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})

	t.Run("未达标话题不能交付", func(t *testing.T) {
		db := newTestDB(t)
		lifecycle := newLifecycle(db, &fakeGateway{})
		ledger := NewLedgerLogic(db, testConfig())

		topic, _, err := ledger.CreateTopicWithSeed(CreateTopicRequest{
			CreatorId:        testCreatorId,
			Title:            "未达标",
			FundingThreshold: 10000,
			UserId:           ptrInt64(100),
			Amount:           3000,
			PaymentId:        paymentId(1),
		})
		require.NoError(t, err)

		err = lifecycle.DeliverContent(testCreatorId, topic.Id, "https://video.example.com/v/2")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("截止时间已过拒绝交付", func(t *testing.T) {
		db := newTestDB(t)
		lifecycle := newLifecycle(db, &fakeGateway{})
		topic := newFundedTopic(t, db, 5000, 5000)

		past := time.Now().Add(-time.Hour)
		require.NoError(t, db.Model(&model.Topic{}).Where("id = ?", topic.Id).
			Update("content_deadline", &past).Error)

		err := lifecycle.DeliverContent(testCreatorId, topic.Id, "https://video.example.com/v/3")
		assert.ErrorIs(t, err, ErrDeadlinePassed)

		var got model.Topic
		require.NoError(t, db.First(&got, topic.Id).Error)
		assert.Equal(t, model.TopicStatusFunded, got.Status)
	})

	t.Run("空内容链接", func(t *testing.T) {
		db := newTestDB(t)
		lifecycle := newLifecycle(db, &fakeGateway{})
		topic := newFundedTopic(t, db, 5000, 5000)

		err := lifecycle.DeliverContent(testCreatorId, topic.Id, "   ")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("非创作者无权交付", func(t *testing.T) {
		db := newTestDB(t)
		lifecycle := newLifecycle(db, &fakeGateway{})
		topic := newFundedTopic(t, db, 5000, 5000)

		err := lifecycle.DeliverContent(testCreatorId+1, topic.Id, "https://video.example.com/v/4")
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})
}

func TestHoldAndResume(t *testing.T) {
	db := newTestDB(t)
	lifecycle := newLifecycle(db, &fakeGateway{})
	topic := newFundedTopic(t, db, 5000, 5000)

	require.NoError(t, lifecycle.Hold(testCreatorId, topic.Id, "素材版权确认中"))

	var held model.Topic
	require.NoError(t, db.First(&held, topic.Id).Error)
	assert.Equal(t, model.TopicStatusOnHold, held.Status)
	assert.Equal(t, "素材版权确认中", held.HoldReason)
	require.NotNil(t, held.HeldAt)

	// 挂起中不能交付，也不能重复挂起
	assert.ErrorIs(t, lifecycle.DeliverContent(testCreatorId, topic.Id, "https://v/x"), ErrInvalidTransition)
	assert.ErrorIs(t, lifecycle.Hold(testCreatorId, topic.Id, "again"), ErrInvalidTransition)

	// 恢复后截止时间重置为一个完整交付窗口
	require.NoError(t, lifecycle.Resume(testCreatorId, topic.Id))

	var resumed model.Topic
	require.NoError(t, db.First(&resumed, topic.Id).Error)
	assert.Equal(t, model.TopicStatusFunded, resumed.Status)
	assert.Empty(t, resumed.HoldReason)
	assert.Nil(t, resumed.HeldAt)
	require.NotNil(t, resumed.ContentDeadline)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), *resumed.ContentDeadline, 5*time.Second)

	// funded状态不能恢复
	assert.ErrorIs(t, lifecycle.Resume(testCreatorId, topic.Id), ErrInvalidTransition)
}

func TestCancel(t *testing.T) {
	t.Run("取消后全额退款，平台不保留手续费", func(t *testing.T) {
		db := newTestDB(t)
		gw := &fakeGateway{}
		lifecycle := newLifecycle(db, gw)
		topic := newFundedTopic(t, db, 10000, 6000, 5000)

		require.NoError(t, lifecycle.Cancel(testCreatorId, topic.Id))

		var got model.Topic
		require.NoError(t, db.First(&got, topic.Id).Error)
		assert.Equal(t, model.TopicStatusCancelled, got.Status)

		var refunds []model.RefundRecord
		require.NoError(t, db.Where("topic_id = ?", topic.Id).Find(&refunds).Error)
		require.Len(t, refunds, 2)
		for _, r := range refunds {
			assert.Equal(t, model.RefundStatusSuccess, r.Status)
			assert.Equal(t, r.OriginalAmount, r.RefundAmount)
			assert.Equal(t, int64(0), r.PlatformFeeKept)
		}

		var contributions []model.Contribution
		require.NoError(t, db.Where("topic_id = ?", topic.Id).Find(&contributions).Error)
		for _, c := range contributions {
			assert.Equal(t, model.PaymentStatusRefunded, c.PaymentStatus)
		}

		var record model.SettlementRecord
		require.NoError(t, db.Where("topic_id = ?", topic.Id).First(&record).Error)
		assert.Equal(t, model.SettlementStatusCancelled, record.Status)

		assert.Len(t, gw.calls, 2)
	})

	t.Run("单笔退款失败不阻塞取消", func(t *testing.T) {
		db := newTestDB(t)
		gw := &fakeGateway{failNext: assert.AnError}
		lifecycle := newLifecycle(db, gw)
		topic := newFundedTopic(t, db, 10000, 6000, 5000)

		require.NoError(t, lifecycle.Cancel(testCreatorId, topic.Id))

		var got model.Topic
		require.NoError(t, db.First(&got, topic.Id).Error)
		assert.Equal(t, model.TopicStatusCancelled, got.Status)

		var failed int64
		require.NoError(t, db.Model(&model.RefundRecord{}).
			Where("topic_id = ? AND status = ?", topic.Id, model.RefundStatusFailed).
			Count(&failed).Error)
		assert.Equal(t, int64(1), failed)

		var success int64
		require.NoError(t, db.Model(&model.RefundRecord{}).
			Where("topic_id = ? AND status = ?", topic.Id, model.RefundStatusSuccess).
			Count(&success).Error)
		assert.Equal(t, int64(1), success)
	})

	t.Run("众筹中的话题也可取消", func(t *testing.T) {
		db := newTestDB(t)
		gw := &fakeGateway{}
		lifecycle := newLifecycle(db, gw)
		ledger := NewLedgerLogic(db, testConfig())

		topic, _, err := ledger.CreateTopicWithSeed(CreateTopicRequest{
			CreatorId:        testCreatorId,
			Title:            "众筹中",
			FundingThreshold: 10000,
			UserId:           ptrInt64(100),
			Amount:           3000,
			PaymentId:        paymentId(1),
		})
		require.NoError(t, err)

		require.NoError(t, lifecycle.Cancel(testCreatorId, topic.Id))
		assert.Len(t, gw.calls, 1)
		assert.Equal(t, int64(3000), gw.calls[0].Amount)
	})

	t.Run("终态话题不能取消", func(t *testing.T) {
		db := newTestDB(t)
		lifecycle := newLifecycle(db, &fakeGateway{})
		topic := newFundedTopic(t, db, 5000, 5000)

		require.NoError(t, lifecycle.DeliverContent(testCreatorId, topic.Id, "https://v/done"))
		assert.ErrorIs(t, lifecycle.Cancel(testCreatorId, topic.Id), ErrInvalidTransition)
	})
}

func TestProcessRefundRetry(t *testing.T) {
	db := newTestDB(t)
	gw := &fakeGateway{failNext: assert.AnError}
	lifecycle := newLifecycle(db, gw)
	topic := newFundedTopic(t, db, 5000, 5000)

	// 首次取消：退款失败但话题已取消
	require.NoError(t, lifecycle.Cancel(testCreatorId, topic.Id))

	var record model.RefundRecord
	require.NoError(t, db.Where("topic_id = ?", topic.Id).First(&record).Error)
	require.Equal(t, model.RefundStatusFailed, record.Status)

	// 重试复用同一条记录，不产生重复退款
	var contribution model.Contribution
	require.NoError(t, db.Where("topic_id = ?", topic.Id).First(&contribution).Error)

	var got model.Topic
	require.NoError(t, db.First(&got, topic.Id).Error)

	_, err := ProcessRefund(db, gw, &got, &contribution, hundred, "话题取消")
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&model.RefundRecord{}).Where("topic_id = ?", topic.Id).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, db.Where("topic_id = ?", topic.Id).First(&record).Error)
	assert.Equal(t, model.RefundStatusSuccess, record.Status)
	assert.Empty(t, record.FailReason)

	// 已成功的退款再次调用直接返回，不再打网关
	callsBefore := len(gw.calls)
	_, err = ProcessRefund(db, gw, &got, &contribution, hundred, "话题取消")
	require.NoError(t, err)
	assert.Equal(t, callsBefore, len(gw.calls))
}
