// Package auth 提供认证相关的 HTTP Handler
package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/Bodzaman/cottage-pos-backend/internal/common/handler"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/response"
	authService "github.com/Bodzaman/cottage-pos-backend/internal/service/auth"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	authService *authService.AuthService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authSvc *authService.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authSvc,
	}
}

// Login 员工 PIN 登录
// @Summary 员工 PIN 登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body authService.LoginRequest true "请求参数"
// @Success 200 {object} response.Response{data=authService.LoginResponse}
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req authService.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	handler.MustSucceed(c, err, resp)
}

// RefreshToken 刷新令牌
// @Summary 刷新令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "请求参数"
// @Success 200 {object} response.Response{data=jwt.TokenPair}
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	tokens, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	handler.MustSucceed(c, err, tokens)
}

// RefreshRequest 刷新令牌请求
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Me 当前登录员工信息
// @Summary 当前登录员工信息
// @Tags 认证
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=authService.StaffInfo}
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	info, err := h.authService.CurrentStaff(c.Request.Context(), actor.ID)
	handler.MustSucceed(c, err, info)
}

// CreateStaff 创建员工账号
// @Summary 创建员工账号
// @Tags 认证
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body authService.CreateStaffRequest true "请求参数"
// @Success 200 {object} response.Response{data=authService.StaffInfo}
// @Router /api/v1/staff [post]
func (h *AuthHandler) CreateStaff(c *gin.Context) {
	actor, ok := handler.RequireAdmin(c)
	if !ok {
		return
	}

	var req authService.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	info, err := h.authService.CreateStaff(c.Request.Context(), actor, &req)
	handler.MustSucceed(c, err, info)
}
