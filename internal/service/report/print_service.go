package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Bodzaman/cottage-pos-backend/internal/common/config"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/errors"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/logger"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/metrics"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/qrcode"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/utils"
	"github.com/Bodzaman/cottage-pos-backend/internal/models"
	"github.com/Bodzaman/cottage-pos-backend/pkg/printer"
)

// 小票默认宽度（字符数）
const defaultReceiptWidth = 42

// PrintService 日结小票打印服务
type PrintService struct {
	reports  *ReportService
	client   printer.Client
	qr       *qrcode.Generator
	business *config.BusinessConfig
	width    int
}

// NewPrintService 创建打印服务，client 为 nil 时打印机视为不可用
func NewPrintService(reports *ReportService, client printer.Client, business *config.BusinessConfig, width int) *PrintService {
	if width <= 0 {
		width = defaultReceiptWidth
	}
	return &PrintService{
		reports:  reports,
		client:   client,
		qr:       qrcode.NewGenerator(qrcode.WithSize(128)),
		business: business,
		width:    width,
	}
}

// PrintResult 打印结果
type PrintResult struct {
	ReportNo  string `json:"report_no"`
	Printed   bool   `json:"printed"`
	QRDataURL string `json:"qr_data_url,omitempty"`
}

// PrintReport 打印当前营业日 Z-Report
// 同时返回报表编号二维码（数据 URL），供前端展示电子副本入口
func (s *PrintService) PrintReport(ctx context.Context, actor models.Actor) (*PrintResult, error) {
	data, err := s.reports.GetReport(ctx, PresetToday, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	if s.client == nil {
		metrics.GetMetrics().RecordPrintJob("unavailable")
		return nil, errors.ErrPrinterUnavailable
	}

	payload := s.renderZReport(data)
	if err := s.client.Print(ctx, payload); err != nil {
		metrics.GetMetrics().RecordPrintJob("failed")
		logger.Error("小票打印失败",
			logger.ReportNo(data.ReportNo),
			zap.Error(err))
		return nil, errors.ErrPrintFailed.WithError(err)
	}

	metrics.GetMetrics().RecordPrintJob("success")
	logger.Info("日结小票已打印",
		logger.ReportNo(data.ReportNo),
		zap.String("printed_by", actor.Name))

	result := &PrintResult{
		ReportNo: data.ReportNo,
		Printed:  true,
	}
	if data.ReportNo != "" {
		dataURL, err := s.qr.GenerateDataURL(data.ReportNo)
		if err != nil {
			// 二维码生成失败不影响打印结果
			logger.Warn("报表二维码生成失败", logger.ReportNo(data.ReportNo), zap.Error(err))
		} else {
			result.QRDataURL = dataURL
		}
	}
	return result, nil
}

// renderZReport 渲染 Z-Report 小票文本
func (s *PrintService) renderZReport(data *models.ReportData) []byte {
	var b strings.Builder
	line := strings.Repeat("-", s.width)

	name := "COTTAGE TANDOORI"
	if s.business != nil && s.business.Restaurant.Name != "" {
		name = strings.ToUpper(s.business.Restaurant.Name)
	}

	b.WriteString(s.center(name) + "\n")
	b.WriteString(s.center("Z-REPORT") + "\n")
	b.WriteString(s.center(data.DateFrom.Format("2006-01-02")) + "\n")
	if data.ReportNo != "" {
		b.WriteString(s.center(data.ReportNo) + "\n")
	}
	b.WriteString(line + "\n")

	b.WriteString(s.row("Orders", fmt.Sprintf("%d", data.TotalOrders)))
	b.WriteString(s.row("Gross Sales", utils.FormatMoney(data.GrossSales)))
	b.WriteString(s.row("Refunds", utils.FormatMoney(data.TotalRefunds)))
	b.WriteString(line + "\n")

	b.WriteString("PAYMENTS\n")
	for _, method := range []string{models.PaymentMethodCash, models.PaymentMethodCard, models.PaymentMethodOnline} {
		totals := data.PaymentBreakdown[method]
		label := fmt.Sprintf("  %s (%d)", titleCase(method), totals.Orders)
		b.WriteString(s.row(label, utils.FormatMoney(totals.Sales)))
	}
	b.WriteString(line + "\n")

	b.WriteString("CASH DRAWER\n")
	b.WriteString(s.row("  Opening Float", utils.FormatMoney(data.CashDrawer.OpeningFloat)))
	b.WriteString(s.row("  Cash Sales", utils.FormatMoney(data.Reconciliation.CashSales)))
	b.WriteString(s.row("  Cash Refunds", "-"+utils.FormatMoney(data.Reconciliation.CashRefunds)))
	b.WriteString(s.row("  Paid Outs", "-"+utils.FormatMoney(data.CashDrawer.TotalPaidOuts)))
	b.WriteString(s.row("  Paid Ins", utils.FormatMoney(data.CashDrawer.TotalPaidIns)))
	for _, op := range data.CashDrawer.Operations {
		sign := "-"
		if op.OperationType == models.DrawerOpPaidIn {
			sign = "+"
		}
		b.WriteString(fmt.Sprintf("    %s %s%s\n", s.truncate(op.Reason, s.width-14), sign, utils.FormatMoney(op.Amount)))
	}
	b.WriteString(s.row("  Expected Cash", utils.FormatMoney(data.Reconciliation.ExpectedCash)))

	if data.CashCounted != nil {
		b.WriteString(s.row("  Counted", utils.FormatMoney(*data.CashCounted)))
	}
	if data.Reconciliation.Variance != nil {
		status := ""
		if data.Reconciliation.VarianceStatus != nil {
			status = " (" + strings.ToUpper(*data.Reconciliation.VarianceStatus) + ")"
		}
		b.WriteString(s.row("  Variance"+status, fmt.Sprintf("%+.2f", *data.Reconciliation.Variance)))
	}
	b.WriteString(line + "\n")

	if data.StaffClosedBy != nil {
		b.WriteString(s.row("Counted By", *data.StaffClosedBy))
	}
	if data.IsFinalized {
		b.WriteString(s.row("Finalized By", utils.SafeString(data.FinalizedBy)))
		if data.FinalizedAt != nil {
			b.WriteString(s.row("Finalized At", data.FinalizedAt.Format("15:04")))
		}
	} else {
		b.WriteString(s.center("*** NOT FINALIZED ***") + "\n")
	}
	b.WriteString("\n\n\n")

	return []byte(b.String())
}

// center 居中对齐
func (s *PrintService) center(text string) string {
	if len(text) >= s.width {
		return text
	}
	pad := (s.width - len(text)) / 2
	return strings.Repeat(" ", pad) + text
}

// row 左右对齐的一行
func (s *PrintService) row(label, value string) string {
	gap := s.width - len(label) - len(value)
	if gap < 1 {
		gap = 1
	}
	return label + strings.Repeat(" ", gap) + value + "\n"
}

func (s *PrintService) truncate(text string, max int) string {
	if max < 4 || len(text) <= max {
		return text
	}
	return text[:max-3] + "..."
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
