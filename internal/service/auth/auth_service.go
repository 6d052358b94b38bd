// Package auth 提供员工 PIN 登录与令牌管理
package auth

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Bodzaman/cottage-pos-backend/internal/common/crypto"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/errors"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/jwt"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/logger"
	"github.com/Bodzaman/cottage-pos-backend/internal/models"
	"github.com/Bodzaman/cottage-pos-backend/internal/repository"
)

// AuthService 认证服务
type AuthService struct {
	db         *gorm.DB
	staffRepo  *repository.StaffRepository
	jwtManager *jwt.Manager
}

// NewAuthService 创建认证服务
func NewAuthService(db *gorm.DB, staffRepo *repository.StaffRepository, jwtManager *jwt.Manager) *AuthService {
	return &AuthService{
		db:         db,
		staffRepo:  staffRepo,
		jwtManager: jwtManager,
	}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	PIN      string `json:"pin" binding:"required"`
}

// StaffInfo 员工信息（登录/查询响应）
type StaffInfo struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Staff  StaffInfo      `json:"staff"`
	Tokens *jwt.TokenPair `json:"tokens"`
}

// Login 员工 PIN 登录
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	// PIN 格式非法直接按错误的 PIN 处理，避免泄露账号是否存在
	if !crypto.ValidPIN(req.PIN) {
		return nil, errors.ErrPINIncorrect
	}

	staff, err := s.staffRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrStaffNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if staff.Status != models.StaffStatusActive {
		return nil, errors.ErrStaffDisabled
	}

	if !crypto.VerifyPIN(req.PIN, staff.PINHash) {
		return nil, errors.ErrPINIncorrect
	}

	tokens, err := s.jwtManager.GenerateTokenPair(staff.ID, staff.Name, staff.Role)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	if err := s.staffRepo.UpdateLastLogin(ctx, staff.ID, time.Now()); err != nil {
		// 登录时间更新失败不阻塞登录
		logger.Warn("更新最后登录时间失败", logger.StaffID(staff.ID), zap.Error(err))
	}

	logger.Info("员工登录成功",
		logger.StaffID(staff.ID),
		zap.String("username", staff.Username),
		zap.String("role", staff.Role))

	return &LoginResponse{
		Staff:  staffInfo(staff),
		Tokens: tokens,
	}, nil
}

// RefreshToken 刷新令牌对
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := s.jwtManager.ParseToken(refreshToken)
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.ErrTokenExpired
		}
		return nil, errors.ErrTokenInvalid
	}

	// 换发前确认员工仍然有效
	staff, err := s.staffRepo.GetByID(ctx, claims.StaffID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrStaffNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if staff.Status != models.StaffStatusActive {
		return nil, errors.ErrStaffDisabled
	}

	tokens, err := s.jwtManager.GenerateTokenPair(staff.ID, staff.Name, staff.Role)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}
	return tokens, nil
}

// CurrentStaff 返回当前登录员工信息
func (s *AuthService) CurrentStaff(ctx context.Context, staffID int64) (*StaffInfo, error) {
	staff, err := s.staffRepo.GetByID(ctx, staffID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrStaffNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	info := staffInfo(staff)
	return &info, nil
}

// CreateStaffRequest 创建员工账号请求
type CreateStaffRequest struct {
	Username string `json:"username" binding:"required"`
	Name     string `json:"name" binding:"required"`
	PIN      string `json:"pin" binding:"required"`
	Role     string `json:"role" binding:"omitempty,oneof=staff admin"`
}

// CreateStaff 创建员工账号（仅管理员）
func (s *AuthService) CreateStaff(ctx context.Context, actor models.Actor, req *CreateStaffRequest) (*StaffInfo, error) {
	if !actor.IsAdmin() {
		return nil, errors.ErrAdminRequired
	}

	hash, err := crypto.HashPIN(req.PIN)
	if err != nil {
		if stderrors.Is(err, crypto.ErrInvalidPIN) {
			return nil, errors.ErrInvalidParams.WithMessage("PIN 码必须为 4-6 位数字")
		}
		return nil, errors.ErrInternalError.WithError(err)
	}

	role := req.Role
	if role == "" {
		role = models.RoleStaff
	}

	staff := &models.Staff{
		Username: req.Username,
		PINHash:  hash,
		Name:     req.Name,
		Role:     role,
		Status:   models.StaffStatusActive,
	}
	if err := s.staffRepo.Create(ctx, staff); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	logger.Info("新建员工账号",
		logger.StaffID(staff.ID),
		zap.String("username", staff.Username),
		zap.String("created_by", actor.Name))

	info := staffInfo(staff)
	return &info, nil
}

func staffInfo(staff *models.Staff) StaffInfo {
	return StaffInfo{
		ID:          staff.ID,
		Username:    staff.Username,
		Name:        staff.Name,
		Role:        staff.Role,
		LastLoginAt: staff.LastLoginAt,
	}
}
