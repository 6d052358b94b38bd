// Package order 提供订单相关的 HTTP Handler
package order

import (
	"github.com/gin-gonic/gin"

	"github.com/Bodzaman/cottage-pos-backend/internal/common/handler"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/response"
	orderService "github.com/Bodzaman/cottage-pos-backend/internal/service/order"
)

// OrderHandler 订单处理器
type OrderHandler struct {
	orderService *orderService.OrderService
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(orderSvc *orderService.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderSvc,
	}
}

// CreateOrder 订单记账
// @Summary 订单记账（结账完成后写入）
// @Tags 订单
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body orderService.CreateOrderRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	var req orderService.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), actor, &req)
	handler.MustSucceed(c, err, order)
}

// GetOrder 查询订单详情
// @Summary 查询订单详情
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	if _, ok := handler.RequireActor(c); !ok {
		return
	}
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	handler.MustSucceed(c, err, order)
}

// ListOrders 查询订单列表
// @Summary 按日期范围分页查询订单
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param date_from query string false "起始日期 YYYY-MM-DD"
// @Param date_to query string false "结束日期 YYYY-MM-DD"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response
// @Router /api/v1/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	if _, ok := handler.RequireActor(c); !ok {
		return
	}

	from, to, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}
	p := handler.BindPagination(c)

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), from, to, p.Page, p.PageSize)
	handler.MustSucceedPage(c, err, orders, total, p.Page, p.PageSize)
}

// RefundOrder 订单退款
// @Summary 订单退款（可部分退款）
// @Tags 订单
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Param request body orderService.RefundRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Refund}
// @Router /api/v1/orders/{id}/refunds [post]
func (h *OrderHandler) RefundOrder(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}

	var req orderService.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	refund, err := h.orderService.RefundOrder(c.Request.Context(), actor, orderID, &req)
	handler.MustSucceed(c, err, refund)
}
