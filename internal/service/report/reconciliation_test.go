package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Bodzaman/cottage-pos-backend/internal/models"
)

func TestExpectedCash(t *testing.T) {
	tests := []struct {
		name         string
		openingFloat float64
		cashSales    float64
		cashRefunds  float64
		paidOuts     float64
		paidIns      float64
		want         float64
	}{
		{
			name:         "典型营业日",
			openingFloat: 100.00,
			cashSales:    550.00,
			cashRefunds:  25.00,
			paidOuts:     60.00,
			paidIns:      10.00,
			want:         575.00,
		},
		{
			name:         "无交易仅备用金",
			openingFloat: 100.00,
			want:         100.00,
		},
		{
			name:         "付出超过现金收入可为负",
			openingFloat: 50.00,
			cashSales:    20.00,
			paidOuts:     100.00,
			want:         -30.00,
		},
		{
			name:         "浮点累加收敛到 2 位",
			openingFloat: 100.10,
			cashSales:    0.1,
			cashRefunds:  0.0,
			paidOuts:     0.0,
			paidIns:      0.1,
			want:         100.30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpectedCash(tt.openingFloat, tt.cashSales, tt.cashRefunds, tt.paidOuts, tt.paidIns)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVarianceNotRounded(t *testing.T) {
	// 差值保留原始精度，由分类按容差判断
	v := Variance(100.005, 100.00)
	assert.InDelta(t, 0.005, v, 1e-9)
}

func TestClassifyVariance(t *testing.T) {
	tests := []struct {
		name     string
		variance float64
		want     string
	}{
		{"零差异", 0, models.VarianceExact},
		{"容差内正差", 0.005, models.VarianceExact},
		{"容差内负差", -0.009, models.VarianceExact},
		{"多出现金", 0.01, models.VarianceOver},
		{"明显多出", 5.20, models.VarianceOver},
		{"短缺现金", -0.01, models.VarianceUnder},
		{"明显短缺", -12.00, models.VarianceUnder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyVariance(tt.variance))
		})
	}
}

func TestSumDrawerOperations(t *testing.T) {
	t.Run("空操作列表归零", func(t *testing.T) {
		totals := SumDrawerOperations(nil)
		assert.Equal(t, 0.0, totals.PaidOuts)
		assert.Equal(t, 0.0, totals.PaidIns)
	})

	t.Run("按类型分别累加", func(t *testing.T) {
		ops := []models.DrawerOperation{
			{OperationType: models.DrawerOpPaidOut, Amount: 15.50},
			{OperationType: models.DrawerOpPaidOut, Amount: 4.50},
			{OperationType: models.DrawerOpPaidIn, Amount: 30.00},
		}
		totals := SumDrawerOperations(ops)
		assert.Equal(t, 20.00, totals.PaidOuts)
		assert.Equal(t, 30.00, totals.PaidIns)
	})
}
