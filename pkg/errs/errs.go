package errs

import (
	"errors"
	"fmt"
	"time"

	"LocusServer/consts"
)

// AppError 业务错误
// Code 对应 consts 中的业务错误码，由 handler 层映射为响应；
// NextAvailableAt 仅在冷却类拒绝时携带，供客户端给出精确提示。
type AppError struct {
	Code            int32
	Message         string
	Cause           error
	NextAvailableAt *time.Time
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// ==================== 构造函数 ====================

// New 根据业务码创建错误，消息取 consts 映射
func New(code int32) error {
	return &AppError{Code: code, Message: consts.GetMessage(code)}
}

// NewWithMessage 根据业务码创建错误并自定义消息
func NewWithMessage(code int32, message string) error {
	return &AppError{Code: code, Message: message}
}

// Wrap 包装底层错误（保留原始错误用于日志与 errors.Is 链）
func Wrap(code int32, cause error) error {
	return &AppError{Code: code, Message: consts.GetMessage(code), Cause: cause}
}

// Cooldown 创建冷却拒绝错误，携带下次可用时间
func Cooldown(code int32, nextAvailableAt time.Time) error {
	return &AppError{
		Code:            code,
		Message:         consts.GetMessage(code),
		NextAvailableAt: &nextAvailableAt,
	}
}

// Internal 包装服务器内部错误
func Internal(cause error) error {
	return Wrap(consts.CodeInternalError, cause)
}

// ==================== 提取函数 ====================

// CodeOf 提取业务错误码；非 AppError 一律视为内部错误
func CodeOf(err error) int32 {
	if err == nil {
		return consts.CodeSuccess
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return consts.CodeInternalError
}

// IsCode 判断错误是否携带指定业务码
func IsCode(err error, code int32) bool {
	return CodeOf(err) == code
}

// NextAvailableOf 提取冷却拒绝的下次可用时间（无则返回 nil）
func NextAvailableOf(err error) *time.Time {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.NextAvailableAt
	}
	return nil
}
