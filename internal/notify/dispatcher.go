package notify

import (
	"context"
	"time"

	"github.com/jaylenmareko/topic-funding-sub000/internal/config"
	"github.com/jaylenmareko/topic-funding-sub000/internal/logger"
	"github.com/jaylenmareko/topic-funding-sub000/internal/model"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// Sender 通知投递通道（邮件、站内信等）
type Sender interface {
	Send(ctx context.Context, n *model.Notification) error
}

// LogSender 把通知打到日志的默认实现
type LogSender struct{}

func (LogSender) Send(_ context.Context, n *model.Notification) error {
	logger.Info("Notify %s [%s]: %s", n.Recipient, n.EventType, n.Payload)
	return nil
}

// Dispatcher 发件箱派发器
// 周期性拉取待投递通知，经协程池并发投递；单条失败累加尝试次数，重试耗尽后置为failed
type Dispatcher struct {
	db          *gorm.DB
	sender      Sender
	pool        *ants.Pool
	interval    time.Duration
	batchSize   int
	maxAttempts int
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewDispatcher 创建派发器
func NewDispatcher(db *gorm.DB, sender Sender, cfg config.NotifyConfig) (*Dispatcher, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		db:          db,
		sender:      sender,
		pool:        pool,
		interval:    interval,
		batchSize:   100,
		maxAttempts: maxAttempts,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start 启动派发循环
func (d *Dispatcher) Start() {
	go d.dispatchLoop()
	logger.Info("Notification dispatcher started")
}

// Stop 停止派发器
func (d *Dispatcher) Stop() {
	d.cancel()
	d.pool.Release()
	logger.Info("Notification dispatcher stopped")
}

// dispatchLoop 派发循环
func (d *Dispatcher) dispatchLoop() {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			if err := d.DispatchPending(); err != nil {
				logger.Error("Failed to dispatch notifications: %v", err)
			}
		}
	}
}

// DispatchPending 投递一批待发送通知
func (d *Dispatcher) DispatchPending() error {
	var pending []model.Notification
	err := d.db.Where("status = ? AND attempts < ?", model.NotificationStatusPending, d.maxAttempts).
		Order("id ASC").
		Limit(d.batchSize).
		Find(&pending).Error
	if err != nil {
		return err
	}

	for i := range pending {
		n := pending[i]
		if err := d.pool.Submit(func() {
			d.deliver(&n)
		}); err != nil {
			logger.Error("Failed to submit notification %d to pool: %v", n.Id, err)
		}
	}

	return nil
}

// deliver 投递单条通知并落地结果
func (d *Dispatcher) deliver(n *model.Notification) {
	err := d.sender.Send(d.ctx, n)

	if err == nil {
		now := time.Now()
		updates := map[string]interface{}{
			"status":   model.NotificationStatusSent,
			"attempts": n.Attempts + 1,
			"sent_at":  &now,
		}
		if dbErr := d.db.Model(&model.Notification{}).Where("id = ?", n.Id).Updates(updates).Error; dbErr != nil {
			logger.Error("Failed to mark notification %d sent: %v", n.Id, dbErr)
		}
		return
	}

	logger.Warn("Failed to deliver notification %d to %s: %v", n.Id, n.Recipient, err)

	attempts := n.Attempts + 1
	status := model.NotificationStatusPending
	if attempts >= d.maxAttempts {
		status = model.NotificationStatusFailed
	}
	updates := map[string]interface{}{
		"status":     status,
		"attempts":   attempts,
		"last_error": err.Error(),
	}
	if dbErr := d.db.Model(&model.Notification{}).Where("id = ?", n.Id).Updates(updates).Error; dbErr != nil {
		logger.Error("Failed to update notification %d: %v", n.Id, dbErr)
	}
}
