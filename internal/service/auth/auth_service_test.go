package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Bodzaman/cottage-pos-backend/internal/common/crypto"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/errors"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/jwt"
	"github.com/Bodzaman/cottage-pos-backend/internal/models"
	"github.com/Bodzaman/cottage-pos-backend/internal/repository"
)

func setupAuthService(t *testing.T) (*AuthService, *repository.StaffRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Staff{}))

	staffRepo := repository.NewStaffRepository(db)
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            "test-secret",
		AccessExpireTime:  time.Hour,
		RefreshExpireTime: 24 * time.Hour,
		Issuer:            "cottage-pos",
	})
	return NewAuthService(db, staffRepo, jwtManager), staffRepo
}

func seedStaff(t *testing.T, repo *repository.StaffRepository, username, pin, role string, status int8) *models.Staff {
	t.Helper()

	hash, err := crypto.HashPIN(pin)
	require.NoError(t, err)

	staff := &models.Staff{
		Username: username,
		PINHash:  hash,
		Name:     username,
		Role:     role,
		Status:   status,
	}
	require.NoError(t, repo.Create(context.Background(), staff))
	return staff
}

func TestLoginSuccess(t *testing.T) {
	svc, repo := setupAuthService(t)
	seedStaff(t, repo, "raj", "1234", models.RoleAdmin, models.StaffStatusActive)

	resp, err := svc.Login(context.Background(), &LoginRequest{Username: "raj", PIN: "1234"})
	require.NoError(t, err)
	assert.Equal(t, "raj", resp.Staff.Username)
	assert.Equal(t, models.RoleAdmin, resp.Staff.Role)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)

	// 登录成功后更新最后登录时间
	updated, err := repo.GetByUsername(context.Background(), "raj")
	require.NoError(t, err)
	assert.NotNil(t, updated.LastLoginAt)
}

func TestLoginWrongPIN(t *testing.T) {
	svc, repo := setupAuthService(t)
	seedStaff(t, repo, "raj", "1234", models.RoleAdmin, models.StaffStatusActive)

	_, err := svc.Login(context.Background(), &LoginRequest{Username: "raj", PIN: "9999"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrPINIncorrect.Code, errors.GetAppError(err).Code)
}

func TestLoginInvalidPINFormat(t *testing.T) {
	svc, _ := setupAuthService(t)

	for _, pin := range []string{"", "12", "1234567", "abcd"} {
		_, err := svc.Login(context.Background(), &LoginRequest{Username: "raj", PIN: pin})
		require.Error(t, err)
		assert.Equal(t, errors.ErrPINIncorrect.Code, errors.GetAppError(err).Code)
	}
}

func TestLoginStaffNotFound(t *testing.T) {
	svc, _ := setupAuthService(t)

	_, err := svc.Login(context.Background(), &LoginRequest{Username: "ghost", PIN: "1234"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrStaffNotFound.Code, errors.GetAppError(err).Code)
}

func TestLoginDisabledStaff(t *testing.T) {
	svc, repo := setupAuthService(t)
	seedStaff(t, repo, "amira", "5678", models.RoleStaff, models.StaffStatusDisabled)

	_, err := svc.Login(context.Background(), &LoginRequest{Username: "amira", PIN: "5678"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrStaffDisabled.Code, errors.GetAppError(err).Code)
}

func TestRefreshToken(t *testing.T) {
	svc, repo := setupAuthService(t)
	seedStaff(t, repo, "raj", "1234", models.RoleAdmin, models.StaffStatusActive)

	resp, err := svc.Login(context.Background(), &LoginRequest{Username: "raj", PIN: "1234"})
	require.NoError(t, err)

	tokens, err := svc.RefreshToken(context.Background(), resp.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
}

func TestRefreshTokenInvalid(t *testing.T) {
	svc, _ := setupAuthService(t)

	_, err := svc.RefreshToken(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.Equal(t, errors.ErrTokenInvalid.Code, errors.GetAppError(err).Code)
}

func TestRefreshTokenDisabledStaff(t *testing.T) {
	svc, repo := setupAuthService(t)
	staff := seedStaff(t, repo, "amira", "5678", models.RoleStaff, models.StaffStatusActive)

	resp, err := svc.Login(context.Background(), &LoginRequest{Username: "amira", PIN: "5678"})
	require.NoError(t, err)

	// 禁用后不能再换发令牌
	require.NoError(t, svc.db.Model(&models.Staff{}).
		Where("id = ?", staff.ID).
		Update("status", models.StaffStatusDisabled).Error)

	_, err = svc.RefreshToken(context.Background(), resp.Tokens.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, errors.ErrStaffDisabled.Code, errors.GetAppError(err).Code)
}

func TestCurrentStaff(t *testing.T) {
	svc, repo := setupAuthService(t)
	staff := seedStaff(t, repo, "raj", "1234", models.RoleAdmin, models.StaffStatusActive)

	info, err := svc.CurrentStaff(context.Background(), staff.ID)
	require.NoError(t, err)
	assert.Equal(t, "raj", info.Username)

	_, err = svc.CurrentStaff(context.Background(), 999)
	require.Error(t, err)
	assert.Equal(t, errors.ErrStaffNotFound.Code, errors.GetAppError(err).Code)
}

func TestCreateStaff(t *testing.T) {
	svc, _ := setupAuthService(t)
	admin := models.Actor{ID: 1, Name: "Raj", Role: models.RoleAdmin}

	info, err := svc.CreateStaff(context.Background(), admin, &CreateStaffRequest{
		Username: "amira",
		Name:     "Amira",
		PIN:      "5678",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, info.Role)

	// 新账号可以直接登录
	resp, err := svc.Login(context.Background(), &LoginRequest{Username: "amira", PIN: "5678"})
	require.NoError(t, err)
	assert.Equal(t, "Amira", resp.Staff.Name)
}

func TestCreateStaffRequiresAdmin(t *testing.T) {
	svc, _ := setupAuthService(t)
	staffActor := models.Actor{ID: 2, Name: "Amira", Role: models.RoleStaff}

	_, err := svc.CreateStaff(context.Background(), staffActor, &CreateStaffRequest{
		Username: "x", Name: "X", PIN: "1234",
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrAdminRequired.Code, errors.GetAppError(err).Code)
}

func TestCreateStaffInvalidPIN(t *testing.T) {
	svc, _ := setupAuthService(t)
	admin := models.Actor{ID: 1, Name: "Raj", Role: models.RoleAdmin}

	_, err := svc.CreateStaff(context.Background(), admin, &CreateStaffRequest{
		Username: "x", Name: "X", PIN: "12",
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidParams.Code, errors.GetAppError(err).Code)
}
