package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jaylenmareko/topic-funding-sub000/internal/config"
	"github.com/jaylenmareko/topic-funding-sub000/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Notification{}))
	return db
}

// recordingSender 记录投递内容，可注入失败
type recordingSender struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (s *recordingSender) Send(_ context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("delivery failed")
	}
	s.sent = append(s.sent, n.Recipient)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestEnqueue(t *testing.T) {
	db := newTestDB(t)

	err := Enqueue(db, CreatorRecipient(42), EventTopicFundedCreator, map[string]interface{}{
		"topic_id": int64(1),
	})
	require.NoError(t, err)

	var n model.Notification
	require.NoError(t, db.First(&n).Error)
	assert.Equal(t, "creator:42", n.Recipient)
	assert.Equal(t, EventTopicFundedCreator, n.EventType)
	assert.Equal(t, model.NotificationStatusPending, n.Status)
	assert.JSONEq(t, `{"topic_id":1}`, n.Payload)
}

func TestDispatchPending(t *testing.T) {
	db := newTestDB(t)
	sender := &recordingSender{}

	d, err := NewDispatcher(db, sender, config.NotifyConfig{Workers: 2, MaxAttempts: 3})
	require.NoError(t, err)
	defer d.Stop()

	require.NoError(t, Enqueue(db, UserRecipient(1), EventContentDelivered, nil))
	require.NoError(t, Enqueue(db, UserRecipient(2), EventContentDelivered, nil))

	require.NoError(t, d.DispatchPending())

	assert.Eventually(t, func() bool {
		var sent int64
		if err := db.Model(&model.Notification{}).
			Where("status = ?", model.NotificationStatusSent).
			Count(&sent).Error; err != nil {
			return false
		}
		return sent == 2
	}, 3*time.Second, 20*time.Millisecond)

	assert.Equal(t, 2, sender.count())

	var n model.Notification
	require.NoError(t, db.First(&n).Error)
	assert.Equal(t, 1, n.Attempts)
	assert.NotNil(t, n.SentAt)
}

func TestDispatchRetryExhaustion(t *testing.T) {
	db := newTestDB(t)
	sender := &recordingSender{fail: true}

	d, err := NewDispatcher(db, sender, config.NotifyConfig{Workers: 1, MaxAttempts: 2})
	require.NoError(t, err)
	defer d.Stop()

	require.NoError(t, Enqueue(db, UserRecipient(1), EventTopicCancelled, nil))

	// 第一轮投递失败，仍为pending等待重试
	require.NoError(t, d.DispatchPending())
	assert.Eventually(t, func() bool {
		var n model.Notification
		if err := db.First(&n).Error; err != nil {
			return false
		}
		return n.Attempts == 1 && n.Status == model.NotificationStatusPending
	}, 3*time.Second, 20*time.Millisecond)

	// 第二轮重试耗尽，置为failed且不再投递
	require.NoError(t, d.DispatchPending())
	assert.Eventually(t, func() bool {
		var n model.Notification
		if err := db.First(&n).Error; err != nil {
			return false
		}
		return n.Status == model.NotificationStatusFailed
	}, 3*time.Second, 20*time.Millisecond)

	var n model.Notification
	require.NoError(t, db.First(&n).Error)
	assert.Equal(t, 2, n.Attempts)
	assert.NotEmpty(t, n.LastError)

	require.NoError(t, d.DispatchPending())
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, db.First(&n).Error)
	assert.Equal(t, 2, n.Attempts)
}
