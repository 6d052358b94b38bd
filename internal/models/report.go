package models

import (
	"time"
)

// DailyReport 日结报表（每个营业日一条，Z-Report 的持久化载体）
// IsFinalized 是单向锁：一旦置位，除新营业日外任何字段不再变更
type DailyReport struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ReportNo       string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"report_no"`
	BusinessDate   time.Time  `gorm:"type:date;uniqueIndex;not null" json:"business_date"`
	OpeningFloat   float64    `gorm:"type:decimal(12,2);not null;default:0" json:"opening_float"`
	CashCounted    *float64   `gorm:"type:decimal(12,2)" json:"cash_counted,omitempty"`
	StaffCounted   *float64   `gorm:"type:decimal(12,2)" json:"staff_cash_counted,omitempty"`
	StaffClosedBy  *string    `gorm:"type:varchar(50)" json:"staff_closed_by,omitempty"`
	StaffCountedAt *time.Time `json:"staff_counted_at,omitempty"`
	Notes          string     `gorm:"type:varchar(1000);not null;default:''" json:"notes"`
	IsFinalized    bool       `gorm:"not null;default:false" json:"is_finalized"`
	FinalizedAt    *time.Time `json:"finalized_at,omitempty"`
	FinalizedBy    *string    `gorm:"type:varchar(50)" json:"finalized_by,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Operations    []DrawerOperation   `gorm:"foreignKey:ReportID" json:"operations,omitempty"`
	Denominations []DenominationCount `gorm:"foreignKey:ReportID" json:"denominations,omitempty"`
}

// TableName 表名
func (DailyReport) TableName() string {
	return "daily_reports"
}

// DrawerOperation 钱箱操作（付出/存入）
// 报表未日结时可创建和删除，日结后不可变
type DrawerOperation struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ReportID      int64     `gorm:"index;not null" json:"report_id"`
	OperationType string    `gorm:"type:varchar(20);not null" json:"operation_type"`
	Amount        float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Reason        string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedBy     string    `gorm:"type:varchar(50);not null" json:"created_by"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`

	// 关联
	Report *DailyReport `gorm:"foreignKey:ReportID" json:"report,omitempty"`
}

// TableName 表名
func (DrawerOperation) TableName() string {
	return "drawer_operations"
}

// DrawerOperationType 钱箱操作类型
const (
	DrawerOpPaidOut = "PAID_OUT" // 付出（供应商付款、跑腿等）
	DrawerOpPaidIn  = "PAID_IN"  // 存入（找零补充等）
)

// ValidDrawerOperationType 判断钱箱操作类型是否合法
func ValidDrawerOperationType(opType string) bool {
	return opType == DrawerOpPaidOut || opType == DrawerOpPaidIn
}

// DenominationCount 面额清点明细
type DenominationCount struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ReportID int64  `gorm:"index;not null" json:"report_id"`
	Label    string `gorm:"type:varchar(20);not null" json:"label"`
	Count    int    `gorm:"not null" json:"count"`
}

// TableName 表名
func (DenominationCount) TableName() string {
	return "denomination_counts"
}

// VarianceStatus 差异分类
const (
	VarianceExact = "exact" // 账实相符
	VarianceOver  = "over"  // 长款
	VarianceUnder = "under" // 短款
)

// PaymentTotals 单一支付方式汇总
type PaymentTotals struct {
	Sales  float64 `json:"sales"`
	Orders int     `json:"orders"`
}

// CashDrawerData 钱箱汇总
type CashDrawerData struct {
	OpeningFloat  float64           `json:"opening_float"`
	Operations    []DrawerOperation `json:"operations"`
	TotalPaidOuts float64           `json:"total_paid_outs"`
	TotalPaidIns  float64           `json:"total_paid_ins"`
}

// ReconciliationData 现金对账派生值
type ReconciliationData struct {
	CashSales      float64  `json:"cash_sales"`
	CashRefunds    float64  `json:"cash_refunds"`
	ExpectedCash   float64  `json:"expected_cash"`
	Variance       *float64 `json:"variance,omitempty"`
	VarianceStatus *string  `json:"variance_status,omitempty"`
}

// ReportData 日期范围报表聚合（API 响应主体）
type ReportData struct {
	DateFrom         time.Time                `json:"date_from"`
	DateTo           time.Time                `json:"date_to"`
	Preset           string                   `json:"preset"`
	IsCurrentDay     bool                     `json:"is_current_day"`
	TotalOrders      int                      `json:"total_orders"`
	GrossSales       float64                  `json:"gross_sales"`
	TotalRefunds     float64                  `json:"total_refunds"`
	PaymentBreakdown map[string]PaymentTotals `json:"payment_breakdown"`
	CashDrawer       CashDrawerData           `json:"cash_drawer"`
	Reconciliation   ReconciliationData       `json:"reconciliation"`
	StaffCashCounted *float64                 `json:"staff_cash_counted,omitempty"`
	StaffClosedBy    *string                  `json:"staff_closed_by,omitempty"`
	StaffCountedAt   *time.Time               `json:"staff_counted_at,omitempty"`
	StaffVariance    *float64                 `json:"staff_variance,omitempty"`
	CashCounted      *float64                 `json:"cash_counted,omitempty"`
	Denominations    []DenominationCount      `json:"denomination_breakdown,omitempty"`
	Notes            string                   `json:"notes"`
	IsFinalized      bool                     `json:"is_finalized"`
	FinalizedAt      *time.Time               `json:"finalized_at,omitempty"`
	FinalizedBy      *string                  `json:"finalized_by,omitempty"`
	ReportNo         string                   `json:"report_no,omitempty"`
}

// POSConfig POS 前端展示/功能配置
type POSConfig struct {
	RestaurantName     string  `json:"restaurant_name"`
	Timezone           string  `json:"timezone"`
	DayCutoffHour      int     `json:"day_cutoff_hour"`
	DefaultFloat       float64 `json:"default_float"`
	VarianceAlertLimit float64 `json:"variance_alert_limit"`
	PrinterEnabled     bool    `json:"printer_enabled"`
}
