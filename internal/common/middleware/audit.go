// Package middleware 提供 HTTP 中间件
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	innermw "github.com/Bodzaman/cottage-pos-backend/internal/middleware"
	"github.com/Bodzaman/cottage-pos-backend/internal/models"
	"github.com/Bodzaman/cottage-pos-backend/internal/repository"
)

// AuditLogger 审计日志中间件
// 异步落库记录钱箱与日结相关的写操作
type AuditLogger struct {
	repo *repository.AuditLogRepository
}

// NewAuditLogger 创建审计日志中间件
func NewAuditLogger(repo *repository.AuditLogRepository) *AuditLogger {
	return &AuditLogger{repo: repo}
}

// RouteConfig 路由审计配置
type RouteConfig struct {
	Module     string
	Action     string
	TargetType string
}

// 需要审计的写操作路由
var routeConfigMap = map[string]RouteConfig{
	"POST /api/v1/reports/paid-outs": {
		Module:     "drawer",
		Action:     "record_paid_out",
		TargetType: "drawer_operation",
	},
	"DELETE /api/v1/reports/operations/:id": {
		Module:     "drawer",
		Action:     "delete_operation",
		TargetType: "drawer_operation",
	},
	"POST /api/v1/reports/staff-count": {
		Module: "report",
		Action: "staff_count",
	},
	"POST /api/v1/reports/cash-count": {
		Module: "report",
		Action: "cash_count",
	},
	"POST /api/v1/reports/finalize": {
		Module: "report",
		Action: "finalize",
	},
	"POST /api/v1/reports/print": {
		Module: "report",
		Action: "print",
	},
	"POST /api/v1/orders": {
		Module:     "order",
		Action:     "create",
		TargetType: "order",
	},
	"POST /api/v1/orders/:id/refunds": {
		Module:     "order",
		Action:     "refund",
		TargetType: "order",
	},
	"POST /api/v1/auth/login": {
		Module: "auth",
		Action: "login",
	},
}

// Log 审计日志中间件处理函数
func (l *AuditLogger) Log() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.shouldLog(c) {
			c.Next()
			return
		}

		// 读取请求体
		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		c.Next()

		// 只审计成功的操作
		if c.Writer.Status() >= 400 {
			return
		}

		go l.record(c.Copy(), requestBody)
	}
}

// shouldLog 判断是否需要记录日志
func (l *AuditLogger) shouldLog(c *gin.Context) bool {
	method := c.Request.Method
	return method == "POST" || method == "PUT" || method == "DELETE" || method == "PATCH"
}

// record 落库审计记录
func (l *AuditLogger) record(c *gin.Context, requestBody []byte) {
	if l.repo == nil {
		return
	}

	routeKey := c.Request.Method + " " + c.FullPath()
	config, ok := routeConfigMap[routeKey]
	if !ok {
		config = defaultConfig(c)
	}

	staffID := innermw.GetStaffID(c)
	if staffID == 0 && config.Action != "login" {
		return
	}

	log := &models.AuditLog{
		StaffID: staffID,
		Module:  config.Module,
		Action:  config.Action,
		IP:      c.ClientIP(),
	}

	userAgent := c.Request.UserAgent()
	if userAgent != "" {
		log.UserAgent = &userAgent
	}

	if config.TargetType != "" {
		log.TargetType = &config.TargetType
		if targetID := paramID(c); targetID != nil {
			log.TargetID = targetID
		}
	}

	if len(requestBody) > 0 {
		var data interface{}
		if err := json.Unmarshal(requestBody, &data); err == nil {
			if mapData, ok := filterSensitiveData(data).(map[string]interface{}); ok {
				log.Detail = mapData
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = l.repo.Create(ctx, log)
}

// defaultConfig 未注册路由的兜底配置
func defaultConfig(c *gin.Context) RouteConfig {
	path := c.FullPath()

	module := "unknown"
	switch {
	case strings.Contains(path, "/reports"):
		module = "report"
	case strings.Contains(path, "/orders"):
		module = "order"
	case strings.Contains(path, "/auth"):
		module = "auth"
	case strings.Contains(path, "/staff"):
		module = "staff"
	}

	action := "unknown"
	switch c.Request.Method {
	case "POST":
		action = "create"
	case "PUT", "PATCH":
		action = "update"
	case "DELETE":
		action = "delete"
	}

	return RouteConfig{Module: module, Action: action}
}

// paramID 从路径参数获取目标 ID
func paramID(c *gin.Context) *int64 {
	idStr := c.Param("id")
	if idStr == "" {
		return nil
	}
	if id, err := json.Number(idStr).Int64(); err == nil {
		return &id
	}
	return nil
}

// filterSensitiveData 过滤敏感数据
func filterSensitiveData(data interface{}) interface{} {
	sensitiveFields := []string{
		"pin", "password",
		"token", "access_token", "refresh_token",
		"secret", "api_key", "api_secret",
	}

	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{})
		for key, value := range v {
			lowerKey := strings.ToLower(key)
			isSensitive := false
			for _, sf := range sensitiveFields {
				if strings.Contains(lowerKey, sf) {
					isSensitive = true
					break
				}
			}
			if isSensitive {
				result[key] = "***"
			} else {
				result[key] = filterSensitiveData(value)
			}
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = filterSensitiveData(item)
		}
		return result
	default:
		return data
	}
}
