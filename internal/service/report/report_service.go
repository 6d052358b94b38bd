package report

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Bodzaman/cottage-pos-backend/internal/common/cache"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/config"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/errors"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/metrics"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/utils"
	"github.com/Bodzaman/cottage-pos-backend/internal/models"
	"github.com/Bodzaman/cottage-pos-backend/internal/repository"
)

// CashRefundRule 现金退款归集规则
// 决定哪些退款计入现金对账。默认按退款渠道为现金归集，
// 门店可替换为按原订单支付方式等其他口径
type CashRefundRule func(ctx context.Context, from, to time.Time) (float64, error)

// Notifier 日结事件通知（短信 / MQTT 广播），失败不影响主流程
type Notifier interface {
	NotifyFinalized(ctx context.Context, report *models.DailyReport, data *models.ReportData)
	NotifyDrawerOperation(ctx context.Context, op *models.DrawerOperation)
}

// ReportService 日结报表服务
// 现金对账引擎：派生值计算 + 两阶段日结（员工清点 → 管理员日结）状态机
type ReportService struct {
	db          *gorm.DB
	reportRepo  *repository.ReportRepository
	orderRepo   *repository.OrderRepository
	drawerRepo  *repository.DrawerRepository
	calendar    *BusinessCalendar
	business    *config.BusinessConfig
	redisClient *redis.Client
	notifier    Notifier
	refundRule  CashRefundRule
}

// NewReportService 创建日结报表服务
func NewReportService(
	db *gorm.DB,
	reportRepo *repository.ReportRepository,
	orderRepo *repository.OrderRepository,
	drawerRepo *repository.DrawerRepository,
	calendar *BusinessCalendar,
	business *config.BusinessConfig,
	redisClient *redis.Client,
	notifier Notifier,
) *ReportService {
	s := &ReportService{
		db:          db,
		reportRepo:  reportRepo,
		orderRepo:   orderRepo,
		drawerRepo:  drawerRepo,
		calendar:    calendar,
		business:    business,
		redisClient: redisClient,
		notifier:    notifier,
	}
	s.refundRule = func(ctx context.Context, from, to time.Time) (float64, error) {
		return orderRepo.SumRefundsByMethod(ctx, from, to, models.PaymentMethodCash)
	}
	return s
}

// SetCashRefundRule 替换现金退款归集规则
func (s *ReportService) SetCashRefundRule(rule CashRefundRule) {
	if rule != nil {
		s.refundRule = rule
	}
}

// CurrentBusinessDate 当前营业日
func (s *ReportService) CurrentBusinessDate() time.Time {
	return s.calendar.Today()
}

// POSConfig 返回前端展示/功能配置
func (s *ReportService) POSConfig() models.POSConfig {
	return models.POSConfig{
		RestaurantName:     s.business.Restaurant.Name,
		Timezone:           s.business.Restaurant.Timezone,
		DayCutoffHour:      s.business.Restaurant.DayCutoffHour,
		DefaultFloat:       s.business.CashDrawer.DefaultFloat,
		VarianceAlertLimit: s.business.CashDrawer.VarianceAlertLimit,
		PrinterEnabled:     config.Get().Printer.Enabled,
	}
}

// OpenReport 获取或开启当前营业日报表
// 起始备用金承接上一已日结营业日的清点现金，无承接来源时使用默认备用金
func (s *ReportService) OpenReport(ctx context.Context) (*models.DailyReport, error) {
	today := s.calendar.Today()

	report, err := s.reportRepo.GetByDate(ctx, today)
	if err == nil {
		return report, nil
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	openingFloat := s.business.CashDrawer.DefaultFloat
	if s.business.CashDrawer.CarryOverFloat {
		if prev, err := s.reportRepo.GetLatestFinalizedBefore(ctx, today); err == nil {
			if prev.CashCounted != nil {
				openingFloat = *prev.CashCounted
			} else if prev.StaffCounted != nil {
				openingFloat = *prev.StaffCounted
			}
		}
	}

	report, err = s.reportRepo.GetOrCreate(ctx, today, utils.GenerateReportNo(today), openingFloat)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return report, nil
}

// GetReport 获取日期范围报表聚合
// 仅当前营业日的单日范围可变；历史范围只读，多日范围不含钱箱对账
func (s *ReportService) GetReport(ctx context.Context, preset string, from, to time.Time) (*models.ReportData, error) {
	today := s.calendar.Today()

	dateRange, err := ResolveDateRange(preset, from, to, today)
	if err != nil {
		return nil, err
	}

	isCurrent := dateRange.IsCurrentDay(today)

	// 仅缓存完全落在当前营业日之前的范围：含今日的范围（单日或 this_week
	// 这类跨日范围）仍可能随记账变化，必须每次现查
	cacheable := s.redisClient != nil && dateRange.To.Before(today)

	cacheKey := fmt.Sprintf("report:range:%s:%s", dateRange.From.Format("20060102"), dateRange.To.Format("20060102"))
	if cacheable {
		var cached models.ReportData
		if err := cache.Get(ctx, cacheKey, &cached); err == nil {
			metrics.GetMetrics().RecordCacheHit("report_range")
			return &cached, nil
		}
		metrics.GetMetrics().RecordCacheMiss("report_range")
	}

	data := &models.ReportData{
		DateFrom:     dateRange.From,
		DateTo:       dateRange.To,
		Preset:       dateRange.Preset,
		IsCurrentDay: isCurrent,
	}

	totalOrders, err := s.orderRepo.CountOrders(ctx, dateRange.From, dateRange.To)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	data.TotalOrders = int(totalOrders)

	gross, err := s.orderRepo.SumGrossSales(ctx, dateRange.From, dateRange.To)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	data.GrossSales = utils.Round2(gross)

	refunds, err := s.orderRepo.SumRefunds(ctx, dateRange.From, dateRange.To)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	data.TotalRefunds = utils.Round2(refunds)

	breakdown, err := s.orderRepo.PaymentBreakdown(ctx, dateRange.From, dateRange.To)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	// 三种支付方式始终出现在汇总里，无交易时为零值
	for _, method := range []string{models.PaymentMethodCash, models.PaymentMethodCard, models.PaymentMethodOnline} {
		if _, ok := breakdown[method]; !ok {
			breakdown[method] = models.PaymentTotals{}
		}
	}
	data.PaymentBreakdown = breakdown

	// 单日范围才有钱箱与对账视图
	if dateRange.IsSingleDay() {
		if err := s.attachDayReport(ctx, data, dateRange, isCurrent); err != nil {
			return nil, err
		}
	}

	if cacheable {
		_ = cache.Set(ctx, cacheKey, data, 10*time.Minute)
	}

	return data, nil
}

// GetReportFor 按操作者角色返回报表视图
// 员工端只见汇总：隐藏支付方式拆分、钱箱操作明细与管理员清点金额
func (s *ReportService) GetReportFor(ctx context.Context, actor models.Actor, preset string, from, to time.Time) (*models.ReportData, error) {
	data, err := s.GetReport(ctx, preset, from, to)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		data.PaymentBreakdown = nil
		data.CashDrawer.Operations = nil
		data.CashCounted = nil
		data.Denominations = nil
		data.Notes = ""
	}
	return data, nil
}

// ListFinalizedReports 分页查询已日结报表（归档视图，按营业日倒序）
func (s *ReportService) ListFinalizedReports(ctx context.Context, page, pageSize int) ([]*models.DailyReport, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	reports, total, err := s.reportRepo.ListFinalized(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return reports, total, nil
}

// attachDayReport 挂载单日报表的钱箱、清点与日结状态
func (s *ReportService) attachDayReport(ctx context.Context, data *models.ReportData, dateRange DateRange, isCurrent bool) error {
	var report *models.DailyReport
	var err error

	if isCurrent {
		report, err = s.OpenReport(ctx)
		if err != nil {
			return err
		}
		// OpenReport 不预加载关联，这里重读带面额明细的完整记录
		report, err = s.reportRepo.GetByDate(ctx, dateRange.From)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
	} else {
		report, err = s.reportRepo.GetByDate(ctx, dateRange.From)
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			// 历史日期没有报表记录：仅销售聚合，无钱箱数据
			return nil
		}
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
	}

	ops, err := s.drawerRepo.ListByReport(ctx, report.ID)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	totals := SumDrawerOperations(ops)
	data.CashDrawer = models.CashDrawerData{
		OpeningFloat:  report.OpeningFloat,
		Operations:    ops,
		TotalPaidOuts: totals.PaidOuts,
		TotalPaidIns:  totals.PaidIns,
	}

	cashSales := data.PaymentBreakdown[models.PaymentMethodCash].Sales
	cashRefunds, err := s.refundRule(ctx, dateRange.From, dateRange.To)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	expected := ExpectedCash(report.OpeningFloat, cashSales, cashRefunds, totals.PaidOuts, totals.PaidIns)
	data.Reconciliation = models.ReconciliationData{
		CashSales:    utils.Round2(cashSales),
		CashRefunds:  utils.Round2(cashRefunds),
		ExpectedCash: expected,
	}
	if report.CashCounted != nil {
		variance := Variance(*report.CashCounted, expected)
		data.Reconciliation.Variance = utils.Float64Ptr(utils.Round2(variance))
		data.Reconciliation.VarianceStatus = utils.StringPtr(ClassifyVariance(variance))
	}

	data.StaffCashCounted = report.StaffCounted
	data.StaffClosedBy = report.StaffClosedBy
	data.StaffCountedAt = report.StaffCountedAt
	if report.StaffCounted != nil {
		staffVariance := Variance(*report.StaffCounted, expected)
		data.StaffVariance = utils.Float64Ptr(utils.Round2(staffVariance))
	}

	data.CashCounted = report.CashCounted
	data.Denominations = report.Denominations
	data.Notes = report.Notes
	data.IsFinalized = report.IsFinalized
	data.FinalizedAt = report.FinalizedAt
	data.FinalizedBy = report.FinalizedBy
	data.ReportNo = report.ReportNo

	return nil
}

// RecordPaidOutRequest 付出/存入登记请求
type RecordPaidOutRequest struct {
	OperationType string  `json:"operation_type" binding:"omitempty,oneof=PAID_OUT PAID_IN"`
	Reason        string  `json:"reason" binding:"required"`
	Amount        float64 `json:"amount" binding:"required"`
}

// RecordPaidOut 登记钱箱付出/存入（仅管理员，仅未日结报表）
func (s *ReportService) RecordPaidOut(ctx context.Context, actor models.Actor, req *RecordPaidOutRequest) (*models.DrawerOperation, error) {
	if !actor.IsAdmin() {
		return nil, errors.ErrAdminRequired
	}

	opType := req.OperationType
	if opType == "" {
		opType = models.DrawerOpPaidOut
	}
	if !models.ValidDrawerOperationType(opType) {
		return nil, errors.ErrDrawerOperationType
	}
	if req.Amount <= 0 {
		return nil, errors.ErrDrawerAmountInvalid
	}
	if req.Reason == "" {
		return nil, errors.ErrDrawerReasonMissing
	}

	report, err := s.OpenReport(ctx)
	if err != nil {
		return nil, err
	}
	if report.IsFinalized {
		return nil, errors.ErrReportFinalized
	}

	op := &models.DrawerOperation{
		ReportID:      report.ID,
		OperationType: opType,
		Amount:        utils.Round2(req.Amount),
		Reason:        req.Reason,
		CreatedBy:     actor.Name,
	}
	affected, err := s.drawerRepo.Create(ctx, op)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if affected == 0 {
		// 读取和写入之间被并发日结锁定
		return nil, errors.ErrReportFinalized
	}

	metrics.GetMetrics().RecordDrawerOperation(opType)
	if s.notifier != nil {
		s.notifier.NotifyDrawerOperation(ctx, op)
	}

	return op, nil
}

// DeleteDrawerOperation 删除钱箱操作（仅管理员，仅未日结报表）
func (s *ReportService) DeleteDrawerOperation(ctx context.Context, actor models.Actor, id int64) error {
	if !actor.IsAdmin() {
		return errors.ErrAdminRequired
	}

	affected, err := s.drawerRepo.Delete(ctx, id)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if affected == 0 {
		// 分辨不存在与已锁定
		if _, err := s.drawerRepo.GetByID(ctx, id); err != nil {
			return errors.ErrDrawerOperationNotFound
		}
		return errors.ErrReportFinalized
	}
	return nil
}

// SaveStaffCountRequest 员工清点请求
type SaveStaffCountRequest struct {
	StaffName     string                     `json:"staff_name" binding:"required"`
	Amount        float64                    `json:"amount"`
	Denominations []models.DenominationCount `json:"denomination_breakdown"`
}

// SaveStaffCashCount 保存员工清点现金
// 不锁定报表：管理员仍可复核与覆盖；日结前重复提交后写覆盖
func (s *ReportService) SaveStaffCashCount(ctx context.Context, actor models.Actor, req *SaveStaffCountRequest) error {
	if req.StaffName == "" {
		return errors.ErrStaffNameMissing
	}
	if req.Amount < 0 {
		return errors.ErrDrawerAmountInvalid.WithMessage("清点金额不能为负数")
	}

	report, err := s.OpenReport(ctx)
	if err != nil {
		return err
	}
	if report.IsFinalized {
		return errors.ErrReportFinalized
	}

	affected, err := s.reportRepo.SaveStaffCount(ctx, report.ID, utils.Round2(req.Amount), req.StaffName, time.Now(), req.Denominations)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if affected == 0 {
		return errors.ErrReportFinalized
	}
	return nil
}

// SaveCashCountRequest 管理员清点请求
type SaveCashCountRequest struct {
	Amount float64 `json:"amount"`
	Notes  string  `json:"notes"`
}

// SaveCashCount 保存管理员清点金额与备注（日结前置条件）
func (s *ReportService) SaveCashCount(ctx context.Context, actor models.Actor, req *SaveCashCountRequest) error {
	if !actor.IsAdmin() {
		return errors.ErrAdminRequired
	}
	if req.Amount < 0 {
		return errors.ErrDrawerAmountInvalid.WithMessage("清点金额不能为负数")
	}

	report, err := s.OpenReport(ctx)
	if err != nil {
		return err
	}
	if report.IsFinalized {
		return errors.ErrReportFinalized
	}

	affected, err := s.reportRepo.SaveCashCount(ctx, report.ID, utils.Round2(req.Amount), req.Notes)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if affected == 0 {
		return errors.ErrReportFinalized
	}
	return nil
}

// FinalizeRequest 日结请求
type FinalizeRequest struct {
	ClosedBy string `json:"closed_by"`
}

// FinalizeReport 日结当前营业日报表（单向锁，仅管理员）
// 前置条件在发起任何写操作前本地校验：必须已有管理员清点金额，
// 且 closed_by 非空或此前已有员工署名。
// 并发日结通过条件更新互斥：冲突时返回统一的冲突错误并要求刷新
func (s *ReportService) FinalizeReport(ctx context.Context, actor models.Actor, req *FinalizeRequest) (*models.DailyReport, error) {
	if !actor.IsAdmin() {
		return nil, errors.ErrAdminRequired
	}

	report, err := s.OpenReport(ctx)
	if err != nil {
		return nil, err
	}
	if report.IsFinalized {
		return nil, errors.ErrReportAlreadyFinalized
	}
	if report.CashCounted == nil {
		return nil, errors.ErrCashCountMissing
	}

	closedBy := req.ClosedBy
	if closedBy == "" {
		closedBy = utils.SafeString(report.StaffClosedBy)
	}
	if closedBy == "" {
		return nil, errors.ErrClosedByMissing
	}

	affected, err := s.reportRepo.Finalize(ctx, report.ID, closedBy, time.Now())
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if affected == 0 {
		// 与并发管理员日结冲突：重读服务端权威状态后报错
		return nil, errors.ErrReportFinalizeConflict
	}

	finalized, err := s.reportRepo.GetByID(ctx, report.ID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	m := metrics.GetMetrics()
	m.RecordReportFinalized()
	if data, err := s.GetReport(ctx, PresetToday, time.Time{}, time.Time{}); err == nil {
		if data.Reconciliation.Variance != nil {
			m.SetCashVariance(*data.Reconciliation.Variance)
		}
		if s.notifier != nil {
			s.notifier.NotifyFinalized(ctx, finalized, data)
		}
	}

	return finalized, nil
}
