package logic

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeSettlement 计算平台手续费与创作者所得
// 手续费四舍五入到分，创作者所得用减法推导，保证两者之和恰好等于总额
func ComputeSettlement(totalFunding int64, feePercent decimal.Decimal) (feeAmount, creatorAmount int64) {
	feeAmount = decimal.NewFromInt(totalFunding).
		Mul(feePercent).
		Div(hundred).
		Round(0).
		IntPart()
	creatorAmount = totalFunding - feeAmount
	return feeAmount, creatorAmount
}

// SplitRefund 按比例拆分退款额与平台保留额
// 保留额同样用减法推导，单笔出资上两者之和恰好等于原额
func SplitRefund(amount int64, refundPercent decimal.Decimal) (refundAmount, feeKept int64) {
	refundAmount = decimal.NewFromInt(amount).
		Mul(refundPercent).
		Div(hundred).
		Round(0).
		IntPart()
	feeKept = amount - refundAmount
	return refundAmount, feeKept
}
