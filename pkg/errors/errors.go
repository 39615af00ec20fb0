// Package errors 提供统一的错误处理框架
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code 错误码
type Code string

const (
	// 通用错误码
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeTimeout      Code = "TIMEOUT"
	CodeRateLimited  Code = "RATE_LIMITED"

	// 排班引擎相关
	CodeUnknownDepartment Code = "UNKNOWN_DEPARTMENT"
	CodeScheduleConflict  Code = "SCHEDULE_CONFLICT"
	CodeInvalidMonth      Code = "INVALID_MONTH"

	// 预约相关（状态冲突，属可预期的并发竞争结果）
	CodeAlreadyTaken    Code = "ALREADY_TAKEN"
	CodeLimitExceeded   Code = "LIMIT_EXCEEDED"
	CodeDeadlineLocked  Code = "DEADLINE_LOCKED"
	CodeWrongDepartment Code = "WRONG_DEPARTMENT"
	CodeNotOwner        Code = "NOT_OWNER"

	// 换班相关
	CodeNotPending     Code = "NOT_PENDING"
	CodeNotAuthorized  Code = "NOT_AUTHORIZED"
	CodeNotShiftHolder Code = "NOT_SHIFT_HOLDER"

	// 数据相关
	CodeDatabaseError  Code = "DATABASE_ERROR"
	CodeValidationFail Code = "VALIDATION_FAILED"
)

// AppError 应用错误
type AppError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Cause      error                  `json:"-"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 添加原因
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithField 添加字段
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// New 创建新错误
func New(code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// codeToHTTPStatus 错误码转HTTP状态码
func codeToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeValidationFail, CodeInvalidMonth, CodeUnknownDepartment:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeNotAuthorized, CodeNotOwner, CodeNotShiftHolder:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyTaken, CodeScheduleConflict, CodeNotPending:
		return http.StatusConflict
	case CodeLimitExceeded, CodeDeadlineLocked, CodeWrongDepartment:
		return http.StatusUnprocessableEntity
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Is 检查错误是否为特定类型
func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode 获取错误码
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetHTTPStatus 获取HTTP状态码
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// 预定义错误
var (
	ErrNotFound     = New(CodeNotFound, "资源不存在")
	ErrInvalidInput = New(CodeInvalidInput, "输入参数无效")
	ErrUnauthorized = New(CodeUnauthorized, "未授权访问")
	ErrForbidden    = New(CodeForbidden, "禁止访问")
	ErrInternal     = New(CodeInternal, "内部错误")
	ErrTimeout      = New(CodeTimeout, "操作超时")
)

// InvalidInput 创建输入无效错误
func InvalidInput(field, reason string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("字段 '%s' 无效: %s", field, reason))
}

// NotFound 创建资源不存在错误
func NotFound(resource, id string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s '%s' 不存在", resource, id))
}

// UnknownDepartment 创建科室无法识别错误
func UnknownDepartment(raw string) *AppError {
	return New(CodeUnknownDepartment, fmt.Sprintf("无法识别的科室名称: '%s'", raw))
}

// AlreadyTaken 创建班次已被占用错误
func AlreadyTaken(date, department string) *AppError {
	return New(CodeAlreadyTaken, fmt.Sprintf("%s %s 的班次已被他人认领", date, department))
}

// LimitExceeded 创建预约数量超限错误
func LimitExceeded(staffID string, limit int) *AppError {
	return New(CodeLimitExceeded, fmt.Sprintf("人员 %s 的有效预约已达上限 %d", staffID, limit))
}

// DeadlineLocked 创建预约日期越界错误
func DeadlineLocked(date, reason string) *AppError {
	return New(CodeDeadlineLocked, fmt.Sprintf("日期 %s 不可预约: %s", date, reason))
}

// WrongDepartment 创建科室不匹配错误
func WrongDepartment(staffDept, wantDept string) *AppError {
	return New(CodeWrongDepartment, fmt.Sprintf("人员科室 '%s' 与预约科室 '%s' 不匹配", staffDept, wantDept))
}

// NotOwner 创建非本人操作错误
func NotOwner(resource string) *AppError {
	return New(CodeNotOwner, fmt.Sprintf("只能操作本人的%s", resource))
}

// NotPending 创建换班请求已处理错误
func NotPending(swapID string) *AppError {
	return New(CodeNotPending, fmt.Sprintf("换班请求 %s 已不在待审批状态", swapID))
}

// NotAuthorized 创建权限不足错误
func NotAuthorized(action string) *AppError {
	return New(CodeNotAuthorized, fmt.Sprintf("当前角色无权%s", action))
}

// NotShiftHolder 创建非班次持有人错误
func NotShiftHolder(staffID, shiftID string) *AppError {
	return New(CodeNotShiftHolder, fmt.Sprintf("人员 %s 不是班次 %s 的持有人", staffID, shiftID))
}

// ScheduleConflict 创建排班冲突错误
func ScheduleConflict(staffID, date, details string) *AppError {
	return New(CodeScheduleConflict, fmt.Sprintf("人员 %s 在 %s 存在排班冲突: %s", staffID, date, details))
}

// ValidationErrors 验证错误集合
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// ValidationError 单个验证错误
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error 实现 error 接口
func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "验证失败"
	}
	return fmt.Sprintf("验证失败: %s - %s", ve.Errors[0].Field, ve.Errors[0].Message)
}

// Add 添加验证错误
func (ve *ValidationErrors) Add(field, message string) {
	ve.Errors = append(ve.Errors, ValidationError{Field: field, Message: message})
}

// HasErrors 检查是否有错误
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// ToAppError 转换为 AppError
func (ve *ValidationErrors) ToAppError() *AppError {
	err := New(CodeValidationFail, "验证失败")
	err.Fields = make(map[string]interface{})
	for _, e := range ve.Errors {
		err.Fields[e.Field] = e.Message
	}
	return err
}
