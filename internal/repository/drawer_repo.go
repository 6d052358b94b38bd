// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Bodzaman/cottage-pos-backend/internal/models"
)

// DrawerRepository 钱箱操作仓储
type DrawerRepository struct {
	db *gorm.DB
}

// NewDrawerRepository 创建钱箱操作仓储
func NewDrawerRepository(db *gorm.DB) *DrawerRepository {
	return &DrawerRepository{db: db}
}

// Create 创建钱箱操作（仅未日结报表）
// 事务内条件更新占住报表行，与并发日结互斥；返回受影响行数，0 表示报表已日结
func (r *DrawerRepository) Create(ctx context.Context, op *models.DrawerOperation) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.DailyReport{}).
			Where("id = ? AND is_finalized = ?", op.ReportID, false).
			Update("updated_at", time.Now())
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		if affected == 0 {
			return nil
		}
		return tx.Create(op).Error
	})
	return affected, err
}

// GetByID 根据 ID 获取钱箱操作
func (r *DrawerRepository) GetByID(ctx context.Context, id int64) (*models.DrawerOperation, error) {
	var op models.DrawerOperation
	err := r.db.WithContext(ctx).First(&op, id).Error
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// Delete 删除钱箱操作
// 通过子查询保证仅能删除未日结报表下的记录，返回受影响行数
func (r *DrawerRepository) Delete(ctx context.Context, id int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Where("report_id IN (?)", r.db.Model(&models.DailyReport{}).
			Select("id").Where("is_finalized = ?", false)).
		Delete(&models.DrawerOperation{})
	return result.RowsAffected, result.Error
}

// ListByReport 获取报表下全部钱箱操作（按时间排序）
func (r *DrawerRepository) ListByReport(ctx context.Context, reportID int64) ([]models.DrawerOperation, error) {
	var ops []models.DrawerOperation
	err := r.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("created_at ASC, id ASC").
		Find(&ops).Error
	return ops, err
}
