// Package report 提供日结报表相关的 HTTP Handler
package report

import (
	"github.com/gin-gonic/gin"

	"github.com/Bodzaman/cottage-pos-backend/internal/common/handler"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/response"
	reportService "github.com/Bodzaman/cottage-pos-backend/internal/service/report"
)

// ReportHandler 日结报表处理器
type ReportHandler struct {
	reportService *reportService.ReportService
	printService  *reportService.PrintService
}

// NewReportHandler 创建日结报表处理器
func NewReportHandler(reportSvc *reportService.ReportService, printSvc *reportService.PrintService) *ReportHandler {
	return &ReportHandler{
		reportService: reportSvc,
		printService:  printSvc,
	}
}

// GetReport 查询日结报表
// @Summary 查询日结报表（支持日期范围预设）
// @Tags 日结报表
// @Produce json
// @Security Bearer
// @Param preset query string false "日期范围预设" Enums(today, yesterday, this_week, last_7_days, custom)
// @Param date_from query string false "起始日期 YYYY-MM-DD（preset=custom 时必填）"
// @Param date_to query string false "结束日期 YYYY-MM-DD（preset=custom 时必填）"
// @Success 200 {object} response.Response{data=models.ReportData}
// @Router /api/v1/reports [get]
func (h *ReportHandler) GetReport(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	preset := c.DefaultQuery("preset", reportService.PresetToday)
	from, to, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}

	data, err := h.reportService.GetReportFor(c.Request.Context(), actor, preset, from, to)
	handler.MustSucceed(c, err, data)
}

// ListFinalizedReports 查询已日结报表列表
// @Summary 分页查询已日结报表（按营业日倒序）
// @Tags 日结报表
// @Produce json
// @Security Bearer
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response
// @Router /api/v1/reports/finalized [get]
func (h *ReportHandler) ListFinalizedReports(c *gin.Context) {
	if _, ok := handler.RequireAdmin(c); !ok {
		return
	}

	p := handler.BindPagination(c)
	reports, total, err := h.reportService.ListFinalizedReports(c.Request.Context(), p.Page, p.PageSize)
	handler.MustSucceedPage(c, err, reports, total, p.Page, p.PageSize)
}

// RecordPaidOut 登记钱箱付出/存入
// @Summary 登记钱箱付出/存入
// @Tags 钱箱
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body reportService.RecordPaidOutRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.DrawerOperation}
// @Router /api/v1/reports/paid-outs [post]
func (h *ReportHandler) RecordPaidOut(c *gin.Context) {
	actor, ok := handler.RequireAdmin(c)
	if !ok {
		return
	}

	var req reportService.RecordPaidOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	op, err := h.reportService.RecordPaidOut(c.Request.Context(), actor, &req)
	handler.MustSucceed(c, err, op)
}

// DeleteDrawerOperation 删除钱箱操作记录
// @Summary 删除钱箱操作记录
// @Tags 钱箱
// @Produce json
// @Security Bearer
// @Param id path int true "操作记录ID"
// @Success 200 {object} response.Response
// @Router /api/v1/reports/operations/{id} [delete]
func (h *ReportHandler) DeleteDrawerOperation(c *gin.Context) {
	actor, opID, ok := handler.RequireAdminAndParseID(c, "钱箱操作")
	if !ok {
		return
	}

	err := h.reportService.DeleteDrawerOperation(c.Request.Context(), actor, opID)
	handler.MustSucceed(c, err, nil)
}

// SaveStaffCashCount 录入员工清点现金
// @Summary 录入员工清点现金（班末清点）
// @Tags 日结报表
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body reportService.SaveStaffCountRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /api/v1/reports/staff-count [post]
func (h *ReportHandler) SaveStaffCashCount(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	var req reportService.SaveStaffCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	err := h.reportService.SaveStaffCashCount(c.Request.Context(), actor, &req)
	handler.MustSucceed(c, err, nil)
}

// SaveCashCount 录入管理员清点现金
// @Summary 录入管理员清点现金（日结前）
// @Tags 日结报表
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body reportService.SaveCashCountRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /api/v1/reports/cash-count [post]
func (h *ReportHandler) SaveCashCount(c *gin.Context) {
	actor, ok := handler.RequireAdmin(c)
	if !ok {
		return
	}

	var req reportService.SaveCashCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	err := h.reportService.SaveCashCount(c.Request.Context(), actor, &req)
	handler.MustSucceed(c, err, nil)
}

// FinalizeReport 日结当前营业日
// @Summary 日结当前营业日（单向锁定）
// @Tags 日结报表
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body reportService.FinalizeRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.DailyReport}
// @Router /api/v1/reports/finalize [post]
func (h *ReportHandler) FinalizeReport(c *gin.Context) {
	actor, ok := handler.RequireAdmin(c)
	if !ok {
		return
	}

	var req reportService.FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	report, err := h.reportService.FinalizeReport(c.Request.Context(), actor, &req)
	handler.MustSucceed(c, err, report)
}

// PrintReport 打印日结小票
// @Summary 打印当前营业日 Z-Report 小票
// @Tags 日结报表
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=reportService.PrintResult}
// @Router /api/v1/reports/print [post]
func (h *ReportHandler) PrintReport(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	result, err := h.printService.PrintReport(c.Request.Context(), actor)
	handler.MustSucceed(c, err, result)
}

// GetBusinessDate 查询当前营业日
// @Summary 查询当前营业日
// @Tags 日结报表
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/business-date [get]
func (h *ReportHandler) GetBusinessDate(c *gin.Context) {
	date := h.reportService.CurrentBusinessDate()
	response.Success(c, gin.H{
		"business_date": date.Format("2006-01-02"),
	})
}

// GetPOSConfig 查询 POS 配置
// @Summary 查询 POS 前端配置
// @Tags 日结报表
// @Produce json
// @Success 200 {object} response.Response{data=models.POSConfig}
// @Router /api/v1/pos-config [get]
func (h *ReportHandler) GetPOSConfig(c *gin.Context) {
	response.Success(c, h.reportService.POSConfig())
}
