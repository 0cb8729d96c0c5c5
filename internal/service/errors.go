package service

import (
	"errors"
	"fmt"
)

var (
	// ErrGoalNotFound 在用户没有进行中的目标时返回
	ErrGoalNotFound = errors.New("no active goal found")
	// ErrActiveGoalExists 在用户已有进行中目标时创建新目标返回
	ErrActiveGoalExists = errors.New("an active goal already exists")
	// ErrSeanceNotFound 在训练记录不存在时返回
	ErrSeanceNotFound = errors.New("seance not found")
	// ErrSeanceForbidden 在访问他人训练记录时返回
	ErrSeanceForbidden = errors.New("seance belongs to another user")
	// ErrInvalidSeanceID 在训练 ID 格式非法时返回
	ErrInvalidSeanceID = errors.New("invalid seance id")
	// ErrUserExists 在注册邮箱已被占用时返回
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials 在邮箱或密码错误时返回
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken 在令牌缺失、非法或过期时返回
	ErrInvalidToken = errors.New("invalid or expired token")
)

// ValidationError 描述单个字段的校验失败
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
