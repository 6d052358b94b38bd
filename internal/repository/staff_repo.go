// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Bodzaman/cottage-pos-backend/internal/models"
)

// StaffRepository 员工仓储
type StaffRepository struct {
	db *gorm.DB
}

// NewStaffRepository 创建员工仓储
func NewStaffRepository(db *gorm.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// Create 创建员工
func (r *StaffRepository) Create(ctx context.Context, staff *models.Staff) error {
	return r.db.WithContext(ctx).Create(staff).Error
}

// GetByID 根据 ID 获取员工
func (r *StaffRepository) GetByID(ctx context.Context, id int64) (*models.Staff, error) {
	var staff models.Staff
	err := r.db.WithContext(ctx).First(&staff, id).Error
	if err != nil {
		return nil, err
	}
	return &staff, nil
}

// GetByUsername 根据用户名获取员工
func (r *StaffRepository) GetByUsername(ctx context.Context, username string) (*models.Staff, error) {
	var staff models.Staff
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&staff).Error
	if err != nil {
		return nil, err
	}
	return &staff, nil
}

// UpdateLastLogin 更新最近登录时间
func (r *StaffRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Staff{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}

// List 获取员工列表
func (r *StaffRepository) List(ctx context.Context, offset, limit int) ([]*models.Staff, int64, error) {
	var staff []*models.Staff
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Staff{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("id ASC").Offset(offset).Limit(limit).Find(&staff).Error; err != nil {
		return nil, 0, err
	}

	return staff, total, nil
}
