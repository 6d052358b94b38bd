// Package repository 提供数据访问层
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Bodzaman/cottage-pos-backend/internal/models"
)

// ReportRepository 日结报表仓储
type ReportRepository struct {
	db *gorm.DB
}

// NewReportRepository 创建日结报表仓储
func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// GetByDate 根据营业日获取报表（含钱箱操作和面额明细）
func (r *ReportRepository) GetByDate(ctx context.Context, businessDate time.Time) (*models.DailyReport, error) {
	var report models.DailyReport
	err := r.db.WithContext(ctx).
		Preload("Operations", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Denominations").
		Where("business_date = ?", businessDate).
		First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// GetByID 根据 ID 获取报表
func (r *ReportRepository) GetByID(ctx context.Context, id int64) (*models.DailyReport, error) {
	var report models.DailyReport
	err := r.db.WithContext(ctx).First(&report, id).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// GetOrCreate 获取营业日报表，不存在则以指定起始备用金创建
func (r *ReportRepository) GetOrCreate(ctx context.Context, businessDate time.Time, reportNo string, openingFloat float64) (*models.DailyReport, error) {
	report, err := r.GetByDate(ctx, businessDate)
	if err == nil {
		return report, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &models.DailyReport{
		ReportNo:     reportNo,
		BusinessDate: businessDate,
		OpeningFloat: openingFloat,
	}
	if err := r.db.WithContext(ctx).Create(created).Error; err != nil {
		// 并发创建同一营业日时回退为读取
		if existing, getErr := r.GetByDate(ctx, businessDate); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return created, nil
}

// Exists 判断营业日报表是否已存在
func (r *ReportRepository) Exists(ctx context.Context, businessDate time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.DailyReport{}).
		Where("business_date = ?", businessDate).
		Count(&count).Error
	return count > 0, err
}

// SaveStaffCount 保存员工清点（后写覆盖，仅未日结报表）
// 返回受影响行数，0 表示报表已日结
func (r *ReportRepository) SaveStaffCount(ctx context.Context, reportID int64, amount float64, staffName string, countedAt time.Time, denominations []models.DenominationCount) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.DailyReport{}).
			Where("id = ? AND is_finalized = ?", reportID, false).
			Updates(map[string]interface{}{
				"staff_counted":    amount,
				"staff_closed_by":  staffName,
				"staff_counted_at": countedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		if affected == 0 {
			return nil
		}

		// 面额明细整体替换（后写覆盖，不做合并）
		if err := tx.Where("report_id = ?", reportID).Delete(&models.DenominationCount{}).Error; err != nil {
			return err
		}
		for i := range denominations {
			denominations[i].ID = 0
			denominations[i].ReportID = reportID
		}
		if len(denominations) > 0 {
			if err := tx.Create(&denominations).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return affected, err
}

// SaveCashCount 保存管理员清点金额与备注（仅未日结报表）
func (r *ReportRepository) SaveCashCount(ctx context.Context, reportID int64, amount float64, notes string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.DailyReport{}).
		Where("id = ? AND is_finalized = ?", reportID, false).
		Updates(map[string]interface{}{
			"cash_counted": amount,
			"notes":        notes,
		})
	return result.RowsAffected, result.Error
}

// Finalize 日结报表（单向锁）
// 条件更新保证与并发日结互斥：受影响行数为 0 表示报表已被日结
func (r *ReportRepository) Finalize(ctx context.Context, reportID int64, closedBy string, finalizedAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.DailyReport{}).
		Where("id = ? AND is_finalized = ?", reportID, false).
		Updates(map[string]interface{}{
			"is_finalized": true,
			"finalized_at": finalizedAt,
			"finalized_by": closedBy,
		})
	return result.RowsAffected, result.Error
}

// GetLatestFinalizedBefore 获取指定日期前最近一次已日结的报表（备用金承接）
func (r *ReportRepository) GetLatestFinalizedBefore(ctx context.Context, businessDate time.Time) (*models.DailyReport, error) {
	var report models.DailyReport
	err := r.db.WithContext(ctx).
		Where("business_date < ? AND is_finalized = ?", businessDate, true).
		Order("business_date DESC").
		First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ListFinalized 获取已日结报表列表
func (r *ReportRepository) ListFinalized(ctx context.Context, offset, limit int) ([]*models.DailyReport, int64, error) {
	var reports []*models.DailyReport
	var total int64

	query := r.db.WithContext(ctx).Model(&models.DailyReport{}).
		Where("is_finalized = ?", true)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("business_date DESC").
		Offset(offset).Limit(limit).
		Find(&reports).Error; err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}
