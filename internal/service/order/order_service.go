// Package order 提供订单记账与退款服务
//
// 订单由 POS 前端在结账完成后写入，本服务只负责记账与汇总，
// 不做菜品库存或厨房流程管理。
package order

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Bodzaman/cottage-pos-backend/internal/common/errors"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/logger"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/metrics"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/utils"
	"github.com/Bodzaman/cottage-pos-backend/internal/models"
	"github.com/Bodzaman/cottage-pos-backend/internal/repository"
	"github.com/Bodzaman/cottage-pos-backend/internal/service/report"
	"github.com/Bodzaman/cottage-pos-backend/pkg/mqtt"
)

// 单号前缀
const (
	orderNoPrefix  = "CT"
	refundNoPrefix = "RF"
)

// EventPublisher 事件广播接口
type EventPublisher interface {
	PublishEvent(eventType string, data interface{}) error
}

// OrderService 订单服务
type OrderService struct {
	db         *gorm.DB
	orderRepo  *repository.OrderRepository
	reportRepo *repository.ReportRepository
	calendar   *report.BusinessCalendar
	publisher  EventPublisher
}

// NewOrderService 创建订单服务
func NewOrderService(
	db *gorm.DB,
	orderRepo *repository.OrderRepository,
	reportRepo *repository.ReportRepository,
	calendar *report.BusinessCalendar,
	publisher EventPublisher,
) *OrderService {
	return &OrderService{
		db:         db,
		orderRepo:  orderRepo,
		reportRepo: reportRepo,
		calendar:   calendar,
		publisher:  publisher,
	}
}

// OrderItemRequest 订单项
type OrderItemRequest struct {
	ItemName string  `json:"item_name" binding:"required"`
	Price    float64 `json:"price" binding:"required"`
	Quantity int     `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest 订单记账请求
type CreateOrderRequest struct {
	OrderType     string             `json:"order_type" binding:"omitempty,oneof=dine_in takeaway delivery collection"`
	PaymentMethod string             `json:"payment_method" binding:"required"`
	TotalAmount   float64            `json:"total_amount" binding:"required"`
	TableNo       *string            `json:"table_no,omitempty"`
	Remark        *string            `json:"remark,omitempty"`
	Items         []OrderItemRequest `json:"items,omitempty"`
}

// CreateOrder 订单记账
// 订单归入当前营业日；营业日已日结则拒绝记账
func (s *OrderService) CreateOrder(ctx context.Context, actor models.Actor, req *CreateOrderRequest) (*models.Order, error) {
	if !models.ValidPaymentMethod(req.PaymentMethod) {
		return nil, errors.ErrPaymentMethodError
	}
	if req.TotalAmount <= 0 {
		return nil, errors.ErrInvalidParams.WithMessage("订单金额必须大于零")
	}

	orderType := req.OrderType
	if orderType == "" {
		orderType = models.OrderTypeDineIn
	}

	now := time.Now()
	businessDate := s.calendar.DateAt(now)
	if err := s.ensureDateOpen(ctx, businessDate); err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderNo:       utils.GenerateOrderNo(orderNoPrefix),
		OrderType:     orderType,
		Status:        models.OrderStatusCompleted,
		TotalAmount:   utils.Round2(req.TotalAmount),
		PaymentMethod: req.PaymentMethod,
		BusinessDate:  businessDate,
		TableNo:       req.TableNo,
		Remark:        req.Remark,
		CompletedAt:   now,
	}
	if actor.ID > 0 {
		order.StaffID = &actor.ID
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, models.OrderItem{
			ItemName:  item.ItemName,
			Price:     item.Price,
			Quantity:  item.Quantity,
			LineTotal: utils.Round2(item.Price * float64(item.Quantity)),
		})
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	metrics.GetMetrics().RecordOrder(order.PaymentMethod, order.OrderType)
	s.publishOrderEvent(mqtt.EventOrderCompleted, order)

	logger.Info("订单已记账",
		logger.OrderNo(order.OrderNo),
		logger.Amount(order.TotalAmount),
		zap.String("payment_method", order.PaymentMethod),
		logger.BusinessDate(order.BusinessDate))

	return order, nil
}

// GetOrder 查询订单详情
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrOrderNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return order, nil
}

// ListOrders 按时间范围分页查询订单
func (s *OrderService) ListOrders(ctx context.Context, from, to time.Time, page, pageSize int) ([]*models.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	orders, total, err := s.orderRepo.List(ctx, from, to, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return orders, total, nil
}

// RefundRequest 退款请求
// RefundMethod 为实际退款渠道，缺省时沿用原订单支付方式
type RefundRequest struct {
	Amount       float64 `json:"amount" binding:"required"`
	RefundMethod string  `json:"refund_method" binding:"omitempty"`
	Reason       string  `json:"reason" binding:"required"`
}

// RefundOrder 订单退款
// 退款归入当前营业日（而非原订单营业日），与钱箱现金流保持同步
func (s *OrderService) RefundOrder(ctx context.Context, actor models.Actor, orderID int64, req *RefundRequest) (*models.Refund, error) {
	if req.Amount <= 0 {
		return nil, errors.ErrInvalidParams.WithMessage("退款金额必须大于零")
	}
	if req.Reason == "" {
		return nil, errors.ErrInvalidParams.WithMessage("请填写退款原因")
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrOrderNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if order.Status == models.OrderStatusVoided {
		return nil, errors.ErrOrderStatusError
	}

	refundMethod := req.RefundMethod
	if refundMethod == "" {
		refundMethod = order.PaymentMethod
	}
	if !models.ValidPaymentMethod(refundMethod) {
		return nil, errors.ErrPaymentMethodError
	}

	refunded, err := s.orderRepo.SumRefundsByOrder(ctx, order.ID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if utils.Round2(refunded+req.Amount) > order.TotalAmount {
		return nil, errors.ErrRefundAmountExceed
	}

	now := time.Now()
	businessDate := s.calendar.DateAt(now)
	if err := s.ensureDateOpen(ctx, businessDate); err != nil {
		return nil, err
	}

	refund := &models.Refund{
		RefundNo:     utils.GenerateOrderNo(refundNoPrefix),
		OrderID:      order.ID,
		Amount:       utils.Round2(req.Amount),
		RefundMethod: refundMethod,
		Reason:       req.Reason,
		BusinessDate: businessDate,
	}
	if actor.ID > 0 {
		refund.StaffID = &actor.ID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := repository.NewOrderRepository(tx)
		if err := txRepo.CreateRefund(ctx, refund); err != nil {
			return err
		}
		return txRepo.UpdateStatus(ctx, order.ID, models.OrderStatusRefunded)
	})
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	metrics.GetMetrics().RecordRefund(refund.RefundMethod)
	s.publishRefundEvent(order, refund)

	logger.Info("订单已退款",
		logger.OrderNo(order.OrderNo),
		zap.String("refund_no", refund.RefundNo),
		logger.Amount(refund.Amount),
		zap.String("refund_method", refund.RefundMethod))

	return refund, nil
}

// ensureDateOpen 校验营业日未日结
func (s *OrderService) ensureDateOpen(ctx context.Context, businessDate time.Time) error {
	existing, err := s.reportRepo.GetByDate(ctx, businessDate)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if existing.IsFinalized {
		return errors.ErrOrderDateClosed
	}
	return nil
}

// orderEvent 订单事件广播载荷
type orderEvent struct {
	OrderNo       string  `json:"order_no"`
	OrderType     string  `json:"order_type"`
	TotalAmount   float64 `json:"total_amount"`
	PaymentMethod string  `json:"payment_method"`
	BusinessDate  string  `json:"business_date"`
}

func (s *OrderService) publishOrderEvent(eventType string, order *models.Order) {
	if s.publisher == nil {
		return
	}
	event := orderEvent{
		OrderNo:       order.OrderNo,
		OrderType:     order.OrderType,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
		BusinessDate:  order.BusinessDate.Format("2006-01-02"),
	}
	if err := s.publisher.PublishEvent(eventType, event); err != nil {
		logger.Warn("订单事件广播失败", logger.OrderNo(order.OrderNo), zap.Error(err))
		return
	}
	metrics.GetMetrics().RecordMQTTMessage(eventType, "out")
}

// refundEvent 退款事件广播载荷
type refundEvent struct {
	OrderNo      string  `json:"order_no"`
	RefundNo     string  `json:"refund_no"`
	Amount       float64 `json:"amount"`
	RefundMethod string  `json:"refund_method"`
	BusinessDate string  `json:"business_date"`
}

func (s *OrderService) publishRefundEvent(order *models.Order, refund *models.Refund) {
	if s.publisher == nil {
		return
	}
	event := refundEvent{
		OrderNo:      order.OrderNo,
		RefundNo:     refund.RefundNo,
		Amount:       refund.Amount,
		RefundMethod: refund.RefundMethod,
		BusinessDate: refund.BusinessDate.Format("2006-01-02"),
	}
	if err := s.publisher.PublishEvent(mqtt.EventOrderRefunded, event); err != nil {
		logger.Warn("退款事件广播失败", logger.OrderNo(order.OrderNo), zap.Error(err))
		return
	}
	metrics.GetMetrics().RecordMQTTMessage(mqtt.EventOrderRefunded, "out")
}
