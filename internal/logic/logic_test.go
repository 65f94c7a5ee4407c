package logic

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jaylenmareko/topic-funding-sub000/internal/config"
	"github.com/jaylenmareko/topic-funding-sub000/internal/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB 使用 SQLite 内存数据库进行测试
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.Topic{},
		&model.Contribution{},
		&model.SettlementRecord{},
		&model.RefundRecord{},
		&model.FundingMilestone{},
		&model.SweepRecord{},
		&model.Notification{},
	)
	require.NoError(t, err)

	return db
}

// testConfig 测试用配置
func testConfig() *config.Config {
	return &config.Config{
		Funding: config.FundingConfig{
			DefaultFeePercent:   10.0,
			DeliveryWindowHours: 48,
			FailRefundPercent:   90.0,
			SweepGuardHours:     24,
			Milestones:          []int{25, 50, 75, 90, 95},
		},
		Notify: config.NotifyConfig{
			AdminRecipient: "admin",
		},
	}
}

// fakeGateway 记录退款调用的假网关，支持按支付单号注入失败
type fakeGateway struct {
	calls    []fakeRefundCall
	failFor  map[string]bool
	failNext error
}

type fakeRefundCall struct {
	PaymentId string
	Amount    int64
}

func (g *fakeGateway) IssueRefund(_ context.Context, originalPaymentId string, amount int64) (string, error) {
	g.calls = append(g.calls, fakeRefundCall{PaymentId: originalPaymentId, Amount: amount})
	if g.failNext != nil {
		err := g.failNext
		g.failNext = nil
		return "", err
	}
	if g.failFor[originalPaymentId] {
		return "", errors.New("gateway rejected")
	}
	return "re_" + originalPaymentId, nil
}

// ptrInt64 辅助函数
func ptrInt64(v int64) *int64 {
	return &v
}

// paymentId 生成测试支付单号
func paymentId(n int) string {
	return fmt.Sprintf("pay_%04d", n)
}
