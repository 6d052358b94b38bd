// Package notify 实现日结事件通知：店主短信汇总与 MQTT 事件广播。
// 通知失败只记录日志，不影响日结主流程。
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Bodzaman/cottage-pos-backend/internal/common/config"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/crypto"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/logger"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/metrics"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/utils"
	"github.com/Bodzaman/cottage-pos-backend/internal/models"
	"github.com/Bodzaman/cottage-pos-backend/pkg/mqtt"
	"github.com/Bodzaman/cottage-pos-backend/pkg/sms"
)

// EventPublisher 事件广播接口（MQTT）
type EventPublisher interface {
	PublishEvent(eventType string, data interface{}) error
}

// Service 通知服务
type Service struct {
	smsCfg    *config.SMSConfig
	business  *config.BusinessConfig
	sender    sms.Sender
	publisher EventPublisher
}

// NewService 创建通知服务，sender 与 publisher 均可为 nil（对应通道关闭）
func NewService(smsCfg *config.SMSConfig, business *config.BusinessConfig, sender sms.Sender, publisher EventPublisher) *Service {
	return &Service{
		smsCfg:    smsCfg,
		business:  business,
		sender:    sender,
		publisher: publisher,
	}
}

// finalizedEvent 日结完成广播载荷
type finalizedEvent struct {
	ReportNo     string   `json:"report_no"`
	BusinessDate string   `json:"business_date"`
	GrossSales   float64  `json:"gross_sales"`
	TotalOrders  int      `json:"total_orders"`
	ExpectedCash float64  `json:"expected_cash"`
	Variance     *float64 `json:"variance,omitempty"`
	FinalizedBy  string   `json:"finalized_by"`
}

// NotifyFinalized 日结完成后通知：MQTT 广播 + 店主短信汇总
func (s *Service) NotifyFinalized(ctx context.Context, report *models.DailyReport, data *models.ReportData) {
	if report == nil || data == nil {
		return
	}

	dateStr := report.BusinessDate.Format("2006-01-02")

	if s.publisher != nil {
		event := finalizedEvent{
			ReportNo:     report.ReportNo,
			BusinessDate: dateStr,
			GrossSales:   data.GrossSales,
			TotalOrders:  data.TotalOrders,
			ExpectedCash: data.Reconciliation.ExpectedCash,
			Variance:     data.Reconciliation.Variance,
			FinalizedBy:  utils.SafeString(data.FinalizedBy),
		}
		if err := s.publisher.PublishEvent(mqtt.EventReportFinalized, event); err != nil {
			logger.Warn("日结事件广播失败",
				logger.ReportNo(report.ReportNo),
				zap.Error(err))
		} else {
			metrics.GetMetrics().RecordMQTTMessage(mqtt.EventReportFinalized, "out")
		}
	}

	s.sendOwnerSummary(ctx, report, data, dateStr)

	if s.varianceExceedsLimit(data.Reconciliation.Variance) {
		logger.Warn("现金差异超过告警阈值",
			logger.ReportNo(report.ReportNo),
			logger.BusinessDate(report.BusinessDate),
			zap.Float64("variance", *data.Reconciliation.Variance),
			zap.Float64("limit", s.business.CashDrawer.VarianceAlertLimit))
	}
}

// varianceExceedsLimit 判断现金差异绝对值是否超过告警阈值
func (s *Service) varianceExceedsLimit(variance *float64) bool {
	if variance == nil || s.business == nil {
		return false
	}
	limit := s.business.CashDrawer.VarianceAlertLimit
	if limit <= 0 {
		return false
	}
	v := *variance
	if v < 0 {
		v = -v
	}
	return v > limit
}

// sendOwnerSummary 向店主发送日结汇总短信
func (s *Service) sendOwnerSummary(ctx context.Context, report *models.DailyReport, data *models.ReportData, dateStr string) {
	if s.sender == nil || s.smsCfg == nil || !s.smsCfg.Enabled || s.smsCfg.OwnerPhone == "" {
		return
	}

	params := map[string]string{
		"date":        dateStr,
		"report_no":   report.ReportNo,
		"gross_sales": fmt.Sprintf("%.2f", data.GrossSales),
		"orders":      fmt.Sprintf("%d", data.TotalOrders),
		"variance":    formatVariance(data.Reconciliation.Variance),
	}

	err := s.sender.Send(ctx, s.smsCfg.OwnerPhone, s.smsCfg.TemplateID, params)
	if err != nil {
		metrics.GetMetrics().RecordSMS("failed")
		logger.Warn("日结汇总短信发送失败",
			logger.ReportNo(report.ReportNo),
			zap.String("phone", crypto.MaskPhone(s.smsCfg.OwnerPhone)),
			zap.Error(err))
		return
	}

	metrics.GetMetrics().RecordSMS("success")
	logger.Info("日结汇总短信已发送",
		logger.ReportNo(report.ReportNo),
		zap.String("phone", crypto.MaskPhone(s.smsCfg.OwnerPhone)))
}

// drawerEvent 钱箱操作广播载荷
type drawerEvent struct {
	ID            int64   `json:"id"`
	ReportID      int64   `json:"report_id"`
	OperationType string  `json:"operation_type"`
	Amount        float64 `json:"amount"`
	Reason        string  `json:"reason"`
	CreatedBy     string  `json:"created_by"`
}

// NotifyDrawerOperation 钱箱操作后广播事件
func (s *Service) NotifyDrawerOperation(_ context.Context, op *models.DrawerOperation) {
	if op == nil || s.publisher == nil {
		return
	}

	event := drawerEvent{
		ID:            op.ID,
		ReportID:      op.ReportID,
		OperationType: op.OperationType,
		Amount:        op.Amount,
		Reason:        op.Reason,
		CreatedBy:     op.CreatedBy,
	}
	if err := s.publisher.PublishEvent(mqtt.EventDrawerOperation, event); err != nil {
		logger.Warn("钱箱事件广播失败",
			zap.Int64("operation_id", op.ID),
			zap.Error(err))
		return
	}
	metrics.GetMetrics().RecordMQTTMessage(mqtt.EventDrawerOperation, "out")
}

func formatVariance(v *float64) string {
	if v == nil {
		return "0.00"
	}
	return fmt.Sprintf("%+.2f", *v)
}
