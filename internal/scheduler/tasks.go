package scheduler

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Bodzaman/cottage-pos-backend/internal/common/cache"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/logger"
	"github.com/Bodzaman/cottage-pos-backend/internal/repository"
	"github.com/Bodzaman/cottage-pos-backend/internal/service/report"
)

// 营业日切换锁，多实例部署时只允许一个实例开启新报表
const rolloverLockKey = cache.KeyPrefixLock + "rollover"

// TaskHandler 定时任务处理器
type TaskHandler struct {
	reports     *report.ReportService
	reportRepo  *repository.ReportRepository
	redisClient *redis.Client
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(reports *report.ReportService, reportRepo *repository.ReportRepository, redisClient *redis.Client) *TaskHandler {
	return &TaskHandler{
		reports:     reports,
		reportRepo:  reportRepo,
		redisClient: redisClient,
	}
}

// RolloverBusinessDay 营业日切换
// 过了切日时刻后为新营业日开启报表（结转上一日留底金），重复执行无副作用
func (h *TaskHandler) RolloverBusinessDay(ctx context.Context) error {
	today := h.reports.CurrentBusinessDate()

	exists, err := h.reportRepo.Exists(ctx, today)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if h.redisClient != nil {
		ok, err := h.redisClient.SetNX(ctx, rolloverLockKey, today.Format("2006-01-02"), time.Minute).Result()
		if err != nil {
			logger.Warn("营业日切换锁获取失败，本轮跳过", zap.Error(err))
			return nil
		}
		if !ok {
			return nil
		}
	}

	rpt, err := h.reports.OpenReport(ctx)
	if err != nil {
		return err
	}

	logger.Info("新营业日报表已开启",
		logger.ReportNo(rpt.ReportNo),
		logger.BusinessDate(rpt.BusinessDate),
		logger.Amount(rpt.OpeningFloat))
	return nil
}

// RemindUnfinalizedReport 检查上一营业日是否完成日结
// 未日结只告警，不自动日结（清点必须人工完成）
func (h *TaskHandler) RemindUnfinalizedReport(ctx context.Context) error {
	today := h.reports.CurrentBusinessDate()
	yesterday := today.AddDate(0, 0, -1)

	rpt, err := h.reportRepo.GetByDate(ctx, yesterday)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if !rpt.IsFinalized {
		logger.Warn("上一营业日尚未日结",
			logger.ReportNo(rpt.ReportNo),
			logger.BusinessDate(rpt.BusinessDate))
	}
	return nil
}
