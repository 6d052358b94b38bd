// Package errors 定义业务错误码和错误处理
package errors

import (
	"fmt"
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown         = New(1000, "未知错误")
	ErrInvalidParams   = New(1001, "参数错误")
	ErrNotFound        = New(1002, "资源不存在")
	ErrAlreadyExists   = New(1003, "资源已存在")
	ErrDatabaseError   = New(1004, "数据库错误")
	ErrCacheError      = New(1005, "缓存错误")
	ErrInternalError   = New(1006, "内部错误")
	ErrExternalService = New(1007, "外部服务错误")
	ErrRateLimitExceed = New(1008, "请求过于频繁")
	ErrOperationFailed = New(1009, "操作失败")
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized     = New(2000, "未登录")
	ErrTokenExpired     = New(2001, "登录已过期")
	ErrTokenInvalid     = New(2002, "无效的令牌")
	ErrPermissionDenied = New(2003, "权限不足")
	ErrStaffNotFound    = New(2004, "员工不存在")
	ErrStaffDisabled    = New(2005, "员工账号已禁用")
	ErrPINIncorrect     = New(2006, "PIN 码错误")
	ErrAdminRequired    = New(2007, "该操作需要管理员权限")
)

// 订单错误码 (3000-3999)
var (
	ErrOrderNotFound      = New(3000, "订单不存在")
	ErrOrderStatusError   = New(3001, "订单状态异常")
	ErrPaymentMethodError = New(3002, "不支持的支付方式")
	ErrRefundNotFound     = New(3003, "退款记录不存在")
	ErrRefundAmountExceed = New(3004, "退款金额超过订单金额")
	ErrOrderDateClosed    = New(3005, "该营业日已日结，无法记账")
)

// 日结报表错误码 (4000-4999)
var (
	ErrReportNotFound          = New(4000, "日结报表不存在")
	ErrReportFinalized         = New(4001, "报表已日结锁定")
	ErrReportAlreadyFinalized  = New(4002, "报表已完成日结，不能重复日结")
	ErrReportFinalizeConflict  = New(4003, "日结冲突，报表状态已变更，请刷新后重试")
	ErrCashCountMissing        = New(4004, "请先录入清点现金金额")
	ErrClosedByMissing         = New(4005, "请填写日结经手人")
	ErrReportRangeReadOnly     = New(4006, "历史日期范围只读，不能修改")
	ErrInvalidDateRange        = New(4007, "无效的日期范围")
	ErrInvalidDateRangePreset  = New(4008, "无效的日期范围预设")
)

// 钱箱错误码 (5000-5999)
var (
	ErrDrawerOperationNotFound = New(5000, "钱箱操作记录不存在")
	ErrDrawerAmountInvalid     = New(5001, "金额必须大于零")
	ErrDrawerReasonMissing     = New(5002, "请填写操作事由")
	ErrDrawerOperationType     = New(5003, "无效的钱箱操作类型")
	ErrStaffNameMissing        = New(5004, "请填写清点员工姓名")
)

// 打印与通知错误码 (6000-6999)
var (
	ErrPrinterUnavailable = New(6000, "打印机不可用")
	ErrPrintFailed        = New(6001, "小票打印失败")
	ErrNotifyFailed       = New(6002, "通知发送失败")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrUnknown.WithError(err)
}
