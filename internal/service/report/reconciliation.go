// Package report 提供日结报表与现金对账服务
package report

import (
	"math"

	"github.com/Bodzaman/cottage-pos-backend/internal/common/utils"
	"github.com/Bodzaman/cottage-pos-backend/internal/models"
)

// varianceEpsilon 账实差异容差
// 2 位小数货币运算中的浮点噪声在此范围内视为相符
const varianceEpsilon = 0.01

// DrawerTotals 钱箱操作金额合计
type DrawerTotals struct {
	PaidOuts float64
	PaidIns  float64
}

// SumDrawerOperations 汇总钱箱操作金额
// 操作为空时付出与存入均为 0
func SumDrawerOperations(ops []models.DrawerOperation) DrawerTotals {
	var totals DrawerTotals
	for _, op := range ops {
		switch op.OperationType {
		case models.DrawerOpPaidOut:
			totals.PaidOuts += op.Amount
		case models.DrawerOpPaidIn:
			totals.PaidIns += op.Amount
		}
	}
	totals.PaidOuts = utils.Round2(totals.PaidOuts)
	totals.PaidIns = utils.Round2(totals.PaidIns)
	return totals
}

// ExpectedCash 计算钱箱应有现金
// 应有现金 = 起始备用金 + 现金销售 − 现金退款 − 付出合计 + 存入合计
func ExpectedCash(openingFloat, cashSales, cashRefunds, paidOuts, paidIns float64) float64 {
	return utils.Round2(openingFloat + cashSales - cashRefunds - paidOuts + paidIns)
}

// Variance 计算账实差异（清点 − 应有）
// 不做舍入：分类以原始差值对容差判断，展示时再收敛到 2 位
func Variance(cashCounted, expectedCash float64) float64 {
	return cashCounted - expectedCash
}

// ClassifyVariance 差异分类
func ClassifyVariance(variance float64) string {
	switch {
	case math.Abs(variance) < varianceEpsilon:
		return models.VarianceExact
	case variance > 0:
		return models.VarianceOver
	default:
		return models.VarianceUnder
	}
}
