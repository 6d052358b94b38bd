package models

import (
	"time"
)

// Order 订单模型（POS 终端完成的交易，日结报表的数据来源）
type Order struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNo       string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_no"`
	OrderType     string     `gorm:"type:varchar(20);not null;default:'dine_in'" json:"order_type"`
	Status        int8       `gorm:"type:smallint;not null;default:1" json:"status"`
	TotalAmount   float64    `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	PaymentMethod string     `gorm:"type:varchar(20);index;not null" json:"payment_method"`
	BusinessDate  time.Time  `gorm:"type:date;index;not null" json:"business_date"`
	StaffID       *int64     `gorm:"index" json:"staff_id,omitempty"`
	TableNo       *string    `gorm:"type:varchar(10)" json:"table_no,omitempty"`
	Remark        *string    `gorm:"type:varchar(255)" json:"remark,omitempty"`
	CompletedAt   time.Time  `gorm:"index;not null" json:"completed_at"`
	RefundedAt    *time.Time `json:"refunded_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Staff   *Staff      `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
	Items   []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Refunds []Refund    `gorm:"foreignKey:OrderID" json:"refunds,omitempty"`
}

// TableName 表名
func (Order) TableName() string {
	return "orders"
}

// OrderType 订单类型
const (
	OrderTypeDineIn     = "dine_in"    // 堂食
	OrderTypeTakeaway   = "takeaway"   // 外带
	OrderTypeDelivery   = "delivery"   // 外送
	OrderTypeCollection = "collection" // 自取
)

// OrderStatus 订单状态
const (
	OrderStatusCompleted = 1 // 已完成
	OrderStatusRefunded  = 2 // 已退款（全额或部分）
	OrderStatusVoided    = 3 // 已作废
)

// PaymentMethod 支付方式
const (
	PaymentMethodCash   = "cash"   // 现金
	PaymentMethodCard   = "card"   // 刷卡
	PaymentMethodOnline = "online" // 线上支付
)

// ValidPaymentMethod 判断支付方式是否合法
func ValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodOnline:
		return true
	}
	return false
}

// OrderItem 订单项
type OrderItem struct {
	ID        int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64   `gorm:"index;not null" json:"order_id"`
	ItemName  string  `gorm:"type:varchar(200);not null" json:"item_name"`
	Price     float64 `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	LineTotal float64 `gorm:"type:decimal(12,2);not null" json:"line_total"`

	// 关联
	Order *Order `gorm:"foreignKey:OrderID" json:"order,omitempty"`
}

// TableName 表名
func (OrderItem) TableName() string {
	return "order_items"
}

// Refund 退款记录
// RefundMethod 为实际退款渠道，可能与原订单支付方式不同，
// 现金对账时按退款渠道归集（而非原支付方式）
type Refund struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RefundNo     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"refund_no"`
	OrderID      int64     `gorm:"index;not null" json:"order_id"`
	Amount       float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	RefundMethod string    `gorm:"type:varchar(20);index;not null" json:"refund_method"`
	Reason       string    `gorm:"type:varchar(255);not null" json:"reason"`
	BusinessDate time.Time `gorm:"type:date;index;not null" json:"business_date"`
	StaffID      *int64    `json:"staff_id,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`

	// 关联
	Order *Order `gorm:"foreignKey:OrderID" json:"order,omitempty"`
}

// TableName 表名
func (Refund) TableName() string {
	return "refunds"
}
