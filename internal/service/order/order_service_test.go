package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Bodzaman/cottage-pos-backend/internal/common/errors"
	"github.com/Bodzaman/cottage-pos-backend/internal/models"
	"github.com/Bodzaman/cottage-pos-backend/internal/repository"
	"github.com/Bodzaman/cottage-pos-backend/internal/service/report"
)

type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) PublishEvent(eventType string, _ interface{}) error {
	p.events = append(p.events, eventType)
	return nil
}

func setupOrderService(t *testing.T) (*OrderService, *repository.ReportRepository, *recordingPublisher) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Staff{},
		&models.Order{},
		&models.OrderItem{},
		&models.Refund{},
		&models.DailyReport{},
		&models.DrawerOperation{},
		&models.DenominationCount{},
	))

	calendar, err := report.NewBusinessCalendar("UTC", 0)
	require.NoError(t, err)

	orderRepo := repository.NewOrderRepository(db)
	reportRepo := repository.NewReportRepository(db)
	pub := &recordingPublisher{}
	return NewOrderService(db, orderRepo, reportRepo, calendar, pub), reportRepo, pub
}

var testActor = models.Actor{ID: 2, Name: "Amira", Role: models.RoleStaff}

func TestCreateOrder(t *testing.T) {
	svc, _, pub := setupOrderService(t)

	order, err := svc.CreateOrder(context.Background(), testActor, &CreateOrderRequest{
		OrderType:     models.OrderTypeTakeaway,
		PaymentMethod: models.PaymentMethodCash,
		TotalAmount:   32.90,
		Items: []OrderItemRequest{
			{ItemName: "Chicken Tikka Masala", Price: 12.95, Quantity: 2},
			{ItemName: "Garlic Naan", Price: 3.50, Quantity: 2},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, order.OrderNo)
	assert.Equal(t, int8(models.OrderStatusCompleted), order.Status)
	assert.Equal(t, 32.90, order.TotalAmount)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, 25.90, order.Items[0].LineTotal)
	require.NotNil(t, order.StaffID)
	assert.Equal(t, int64(2), *order.StaffID)
	assert.Equal(t, []string{"order.completed"}, pub.events)
}

func TestCreateOrderDefaultsToDineIn(t *testing.T) {
	svc, _, _ := setupOrderService(t)

	order, err := svc.CreateOrder(context.Background(), testActor, &CreateOrderRequest{
		PaymentMethod: models.PaymentMethodCard,
		TotalAmount:   18.50,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderTypeDineIn, order.OrderType)
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _, _ := setupOrderService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		req      *CreateOrderRequest
		wantCode int
	}{
		{
			name:     "不支持的支付方式",
			req:      &CreateOrderRequest{PaymentMethod: "cheque", TotalAmount: 10},
			wantCode: errors.ErrPaymentMethodError.Code,
		},
		{
			name:     "金额为零",
			req:      &CreateOrderRequest{PaymentMethod: models.PaymentMethodCash, TotalAmount: 0},
			wantCode: errors.ErrInvalidParams.Code,
		},
		{
			name:     "负金额",
			req:      &CreateOrderRequest{PaymentMethod: models.PaymentMethodCash, TotalAmount: -5},
			wantCode: errors.ErrInvalidParams.Code,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOrder(ctx, testActor, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.GetAppError(err).Code)
		})
	}
}

func TestCreateOrderRejectedAfterFinalize(t *testing.T) {
	svc, reportRepo, _ := setupOrderService(t)
	ctx := context.Background()

	today := svc.calendar.Today()
	rpt, err := reportRepo.GetOrCreate(ctx, today, "ZR20260831000001", 100)
	require.NoError(t, err)
	affected, err := reportRepo.Finalize(ctx, rpt.ID, "Raj", time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	_, err = svc.CreateOrder(ctx, testActor, &CreateOrderRequest{
		PaymentMethod: models.PaymentMethodCash,
		TotalAmount:   10,
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrOrderDateClosed.Code, errors.GetAppError(err).Code)
}

func TestRefundOrder(t *testing.T) {
	svc, _, pub := setupOrderService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, testActor, &CreateOrderRequest{
		PaymentMethod: models.PaymentMethodCash,
		TotalAmount:   40.00,
	})
	require.NoError(t, err)

	refund, err := svc.RefundOrder(ctx, testActor, order.ID, &RefundRequest{
		Amount: 15.00,
		Reason: "菜品错误",
	})
	require.NoError(t, err)
	assert.Equal(t, 15.00, refund.Amount)
	// 缺省沿用原订单支付方式
	assert.Equal(t, models.PaymentMethodCash, refund.RefundMethod)
	assert.Contains(t, pub.events, "order.refunded")

	updated, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int8(models.OrderStatusRefunded), updated.Status)
}

func TestRefundOrderDifferentMethod(t *testing.T) {
	svc, _, _ := setupOrderService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, testActor, &CreateOrderRequest{
		PaymentMethod: models.PaymentMethodCard,
		TotalAmount:   40.00,
	})
	require.NoError(t, err)

	// 刷卡订单用现金退款，对账时按退款渠道归集
	refund, err := svc.RefundOrder(ctx, testActor, order.ID, &RefundRequest{
		Amount:       10.00,
		RefundMethod: models.PaymentMethodCash,
		Reason:       "顾客投诉",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentMethodCash, refund.RefundMethod)
}

func TestRefundOrderExceedsTotal(t *testing.T) {
	svc, _, _ := setupOrderService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, testActor, &CreateOrderRequest{
		PaymentMethod: models.PaymentMethodCash,
		TotalAmount:   30.00,
	})
	require.NoError(t, err)

	_, err = svc.RefundOrder(ctx, testActor, order.ID, &RefundRequest{Amount: 20, Reason: "部分退款"})
	require.NoError(t, err)

	// 累计退款不能超过订单金额
	_, err = svc.RefundOrder(ctx, testActor, order.ID, &RefundRequest{Amount: 10.01, Reason: "再退"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrRefundAmountExceed.Code, errors.GetAppError(err).Code)

	// 刚好退完可以
	_, err = svc.RefundOrder(ctx, testActor, order.ID, &RefundRequest{Amount: 10, Reason: "退完"})
	require.NoError(t, err)
}

func TestRefundOrderValidation(t *testing.T) {
	svc, _, _ := setupOrderService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, testActor, &CreateOrderRequest{
		PaymentMethod: models.PaymentMethodCash,
		TotalAmount:   30.00,
	})
	require.NoError(t, err)

	_, err = svc.RefundOrder(ctx, testActor, order.ID, &RefundRequest{Amount: 0, Reason: "x"})
	assert.Equal(t, errors.ErrInvalidParams.Code, errors.GetAppError(err).Code)

	_, err = svc.RefundOrder(ctx, testActor, order.ID, &RefundRequest{Amount: 5, Reason: ""})
	assert.Equal(t, errors.ErrInvalidParams.Code, errors.GetAppError(err).Code)

	_, err = svc.RefundOrder(ctx, testActor, order.ID, &RefundRequest{Amount: 5, RefundMethod: "voucher", Reason: "x"})
	assert.Equal(t, errors.ErrPaymentMethodError.Code, errors.GetAppError(err).Code)

	_, err = svc.RefundOrder(ctx, testActor, 999, &RefundRequest{Amount: 5, Reason: "x"})
	assert.Equal(t, errors.ErrOrderNotFound.Code, errors.GetAppError(err).Code)
}

func TestListOrders(t *testing.T) {
	svc, _, _ := setupOrderService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.CreateOrder(ctx, testActor, &CreateOrderRequest{
			PaymentMethod: models.PaymentMethodCash,
			TotalAmount:   10.00,
		})
		require.NoError(t, err)
	}

	today := svc.calendar.Today()
	orders, total, err := svc.ListOrders(ctx, today, today, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, orders, 2)
}
