package logic

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeSettlement(t *testing.T) {
	tests := []struct {
		name              string
		totalFunding      int64
		feePercent        string
		wantFeeAmount     int64
		wantCreatorAmount int64
	}{
		{
			name:              "整除：10%手续费",
			totalFunding:      11000, // $110
			feePercent:        "10",
			wantFeeAmount:     1100,
			wantCreatorAmount: 9900,
		},
		{
			name:              "半分位四舍五入进位",
			totalFunding:      105, // 10% = 10.5分
			feePercent:        "10",
			wantFeeAmount:     11,
			wantCreatorAmount: 94,
		},
		{
			name:              "不足半分舍去",
			totalFunding:      104, // 10% = 10.4分
			feePercent:        "10",
			wantFeeAmount:     10,
			wantCreatorAmount: 94,
		},
		{
			name:              "非整数费率",
			totalFunding:      10000,
			feePercent:        "12.5",
			wantFeeAmount:     1250,
			wantCreatorAmount: 8750,
		},
		{
			name:              "零费率",
			totalFunding:      5000,
			feePercent:        "0",
			wantFeeAmount:     0,
			wantCreatorAmount: 5000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, creator := ComputeSettlement(tt.totalFunding, decimal.RequireFromString(tt.feePercent))
			assert.Equal(t, tt.wantFeeAmount, fee)
			assert.Equal(t, tt.wantCreatorAmount, creator)
			// 拆分之和必须恰好等于总额，不允许分币丢失
			assert.Equal(t, tt.totalFunding, fee+creator)
		})
	}
}

func TestSplitRefund(t *testing.T) {
	tests := []struct {
		name             string
		amount           int64
		refundPercent    string
		wantRefundAmount int64
		wantFeeKept      int64
	}{
		{
			name:             "超时清算按90%退款",
			amount:           4000, // $40
			refundPercent:    "90",
			wantRefundAmount: 3600,
			wantFeeKept:      400,
		},
		{
			name:             "取消按100%退款",
			amount:           4000,
			refundPercent:    "100",
			wantRefundAmount: 4000,
			wantFeeKept:      0,
		},
		{
			name:             "奇数金额四舍五入",
			amount:           333, // 90% = 299.7分
			refundPercent:    "90",
			wantRefundAmount: 300,
			wantFeeKept:      33,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refund, kept := SplitRefund(tt.amount, decimal.RequireFromString(tt.refundPercent))
			assert.Equal(t, tt.wantRefundAmount, refund)
			assert.Equal(t, tt.wantFeeKept, kept)
			assert.Equal(t, tt.amount, refund+kept)
		})
	}
}
