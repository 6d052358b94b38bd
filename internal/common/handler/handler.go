// Package handler 提供 API Handler 的通用辅助函数
// 用于减少 Handler 层的代码重复，统一错误处理、认证检查、参数解析等操作
package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Bodzaman/cottage-pos-backend/internal/common/errors"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/response"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/utils"
	"github.com/Bodzaman/cottage-pos-backend/internal/middleware"
	"github.com/Bodzaman/cottage-pos-backend/internal/models"
)

// HandleError 处理错误并发送适当的响应
// 如果 err 为 nil，返回 false（表示无错误需要处理）
// 如果 err 不为 nil，发送错误响应并返回 true（表示已处理错误，调用方应该 return）
//
// 使用示例:
//
//	result, err := service.DoSomething()
//	if HandleError(c, err) {
//	    return
//	}
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if appErr, ok := err.(*errors.AppError); ok {
		response.Error(c, appErr.Code, appErr.Message)
		return true
	}
	response.InternalError(c, err.Error())
	return true
}

// MustSucceed 便捷封装：如果有错误则返回错误响应，否则返回成功响应
//
// 使用示例:
//
//	result, err := service.GetData()
//	MustSucceed(c, err, result)
//	return  // 注意：调用 MustSucceed 后必须 return
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Success(c, data)
}

// MustSucceedWithMessage 便捷封装：带自定义成功消息
func MustSucceedWithMessage(c *gin.Context, err error, message string, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.SuccessWithMessage(c, message, data)
}

// MustSucceedPage 便捷封装：分页响应版本
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, page, pageSize int) {
	if HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// RequireActor 获取当前登录员工身份，未登录则返回401响应
// 返回 (actor, true) 表示已登录
// 返回 (zero, false) 表示未登录（已发送响应，调用方应该 return）
//
// 使用示例:
//
//	actor, ok := handler.RequireActor(c)
//	if !ok {
//	    return
//	}
func RequireActor(c *gin.Context) (models.Actor, bool) {
	actor := middleware.GetActor(c)
	if actor.ID == 0 {
		response.Unauthorized(c, "请先登录")
		return models.Actor{}, false
	}
	return actor, true
}

// RequireAdmin 获取当前登录身份并要求管理员角色
// 权限不足时发送业务错误响应
func RequireAdmin(c *gin.Context) (models.Actor, bool) {
	actor, ok := RequireActor(c)
	if !ok {
		return models.Actor{}, false
	}
	if !actor.IsAdmin() {
		response.Error(c, errors.ErrAdminRequired.Code, errors.ErrAdminRequired.Message)
		return models.Actor{}, false
	}
	return actor, true
}

// ParseID 解析路径参数 "id" 为 int64
// 返回 (id, true) 表示解析成功
// 返回 (0, false) 表示解析失败（已发送400响应，调用方应该 return）
func ParseID(c *gin.Context, resourceName string) (int64, bool) {
	return ParseParamID(c, "id", resourceName)
}

// ParseParamID 解析指定路径参数为 int64
// paramName: 路径参数名称（如 "id", "order_id"）
// resourceName: 资源名称，用于错误消息（如 "订单", "钱箱操作"）
func ParseParamID(c *gin.Context, paramName, resourceName string) (int64, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		response.BadRequest(c, "无效的"+resourceName+"ID")
		return 0, false
	}
	return id, true
}

// DateFormat 业务日期格式
const DateFormat = "2006-01-02"

// ParseDate 解析日期字符串 (YYYY-MM-DD)，归一化为 UTC 日期值
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateFormat, s, time.UTC)
}

// ParseQueryDate 从查询参数解析日期
// 返回 (zero, true) 如果参数为空
// 返回 (zero, false) 如果解析失败（已发送400响应）
func ParseQueryDate(c *gin.Context, paramName string) (time.Time, bool) {
	dateStr := c.Query(paramName)
	if dateStr == "" {
		return time.Time{}, true
	}
	t, err := ParseDate(dateStr)
	if err != nil {
		response.BadRequest(c, "无效的"+paramName+"日期格式，应为 YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}

// ParseQueryDateRange 从查询参数解析日期范围（date_from, date_to）
// 两个值均为日期值，范围语义由业务层决定
// 返回 (zero, zero, false) 如果任一参数解析失败（已发送400响应）
func ParseQueryDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	from, ok := ParseQueryDate(c, "date_from")
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	to, ok := ParseQueryDate(c, "date_to")
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// BindPagination 从查询参数绑定并规范化分页参数
// 默认 page=1, pageSize=10, 最大 pageSize=100
func BindPagination(c *gin.Context) utils.Pagination {
	var p utils.Pagination
	p.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	p.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	p.Normalize()
	return p
}

// RequireAdminAndParseID 组合：检查管理员身份 + 解析ID参数
func RequireAdminAndParseID(c *gin.Context, resourceName string) (models.Actor, int64, bool) {
	actor, ok := RequireAdmin(c)
	if !ok {
		return models.Actor{}, 0, false
	}
	id, ok := ParseID(c, resourceName)
	if !ok {
		return models.Actor{}, 0, false
	}
	return actor, id, true
}
