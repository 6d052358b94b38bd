// Package middleware 提供 HTTP 中间件
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Bodzaman/cottage-pos-backend/internal/common/jwt"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/response"
	"github.com/Bodzaman/cottage-pos-backend/internal/models"
)

// 上下文键
const (
	ContextKeyStaffID = "staff_id"
	ContextKeyName    = "staff_name"
	ContextKeyRole    = "role"
	ContextKeyClaims  = "claims"
)

// Auth 认证中间件
func Auth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		claims, err := jwtManager.ParseToken(token)
		if err != nil {
			if err == jwt.ErrTokenExpired {
				response.Unauthorized(c, "登录已过期，请重新登录")
			} else {
				response.Unauthorized(c, "无效的令牌")
			}
			c.Abort()
			return
		}

		// 设置上下文
		c.Set(ContextKeyStaffID, claims.StaffID)
		c.Set(ContextKeyName, claims.Name)
		c.Set(ContextKeyRole, claims.Role)
		c.Set(ContextKeyClaims, claims)

		c.Next()
	}
}

// OptionalAuth 可选认证中间件（不强制要求登录）
func OptionalAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token != "" {
			claims, err := jwtManager.ParseToken(token)
			if err == nil {
				c.Set(ContextKeyStaffID, claims.StaffID)
				c.Set(ContextKeyName, claims.Name)
				c.Set(ContextKeyRole, claims.Role)
				c.Set(ContextKeyClaims, claims)
			}
		}
		c.Next()
	}
}

// extractToken 从请求中提取令牌
func extractToken(c *gin.Context) string {
	// 优先从 Authorization 头获取
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	// 其次从查询参数获取
	token := c.Query("token")
	if token != "" {
		return token
	}

	// 最后从 Cookie 获取
	token, _ = c.Cookie("token")
	return token
}

// GetStaffID 从上下文获取员工 ID
func GetStaffID(c *gin.Context) int64 {
	staffID, exists := c.Get(ContextKeyStaffID)
	if !exists {
		return 0
	}
	return staffID.(int64)
}

// GetStaffName 从上下文获取员工姓名
func GetStaffName(c *gin.Context) string {
	name, exists := c.Get(ContextKeyName)
	if !exists {
		return ""
	}
	return name.(string)
}

// GetRole 从上下文获取角色
func GetRole(c *gin.Context) string {
	role, exists := c.Get(ContextKeyRole)
	if !exists {
		return ""
	}
	return role.(string)
}

// GetActor 从上下文组装操作者身份
func GetActor(c *gin.Context) models.Actor {
	return models.Actor{
		ID:   GetStaffID(c),
		Name: GetStaffName(c),
		Role: GetRole(c),
	}
}

// GetClaims 从上下文获取完整的 Claims
func GetClaims(c *gin.Context) *jwt.Claims {
	claims, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	return claims.(*jwt.Claims)
}

// IsLoggedIn 判断是否已登录
func IsLoggedIn(c *gin.Context) bool {
	_, exists := c.Get(ContextKeyStaffID)
	return exists
}
