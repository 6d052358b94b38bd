// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Bodzaman/cottage-pos-backend/internal/models"
)

// OrderRepository 订单仓储
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create 创建订单
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// GetByID 根据 ID 获取订单
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单号获取订单
func (r *OrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("order_no = ?", orderNo).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus 更新订单状态
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status int8) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status).Error
}

// CreateRefund 创建退款记录
func (r *OrderRepository) CreateRefund(ctx context.Context, refund *models.Refund) error {
	return r.db.WithContext(ctx).Create(refund).Error
}

// SumRefundsByOrder 统计订单已退款总额
func (r *OrderRepository) SumRefundsByOrder(ctx context.Context, orderID int64) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.Refund{}).
		Where("order_id = ?", orderID).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&total)
	return total, err
}

// CountOrders 统计范围内订单数（不含作废）
func (r *OrderRepository) CountOrders(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("business_date >= ? AND business_date <= ?", from, to).
		Where("status <> ?", models.OrderStatusVoided).
		Count(&count).Error
	return count, err
}

// SumGrossSales 统计范围内销售总额（不含作废）
func (r *OrderRepository) SumGrossSales(ctx context.Context, from, to time.Time) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("business_date >= ? AND business_date <= ?", from, to).
		Where("status <> ?", models.OrderStatusVoided).
		Select("COALESCE(SUM(total_amount), 0)").
		Row().Scan(&total)
	return total, err
}

// PaymentBreakdown 按支付方式汇总范围内销售额与单数
func (r *OrderRepository) PaymentBreakdown(ctx context.Context, from, to time.Time) (map[string]models.PaymentTotals, error) {
	type row struct {
		PaymentMethod string
		Sales         float64
		Orders        int
	}

	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("payment_method, COALESCE(SUM(total_amount), 0) as sales, COUNT(*) as orders").
		Where("business_date >= ? AND business_date <= ?", from, to).
		Where("status <> ?", models.OrderStatusVoided).
		Group("payment_method").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	breakdown := make(map[string]models.PaymentTotals, len(rows))
	for _, r := range rows {
		breakdown[r.PaymentMethod] = models.PaymentTotals{Sales: r.Sales, Orders: r.Orders}
	}
	return breakdown, nil
}

// SumRefunds 统计范围内退款总额
func (r *OrderRepository) SumRefunds(ctx context.Context, from, to time.Time) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.Refund{}).
		Where("business_date >= ? AND business_date <= ?", from, to).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&total)
	return total, err
}

// SumRefundsByMethod 统计范围内指定退款渠道的退款总额
func (r *OrderRepository) SumRefundsByMethod(ctx context.Context, from, to time.Time, method string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.Refund{}).
		Where("business_date >= ? AND business_date <= ?", from, to).
		Where("refund_method = ?", method).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&total)
	return total, err
}

// List 获取订单列表（管理端）
func (r *OrderRepository) List(ctx context.Context, from, to time.Time, offset, limit int) ([]*models.Order, int64, error) {
	var orders []*models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("business_date >= ? AND business_date <= ?", from, to)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Preload("Items").
		Order("id DESC").Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}
