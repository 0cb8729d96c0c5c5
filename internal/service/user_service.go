package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/fittrack/internal/db"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// UserStore 是账户服务依赖的存储能力
type UserStore interface {
	Create(ctx context.Context, user *db.User) error
	FindByEmail(ctx context.Context, email string) (*db.User, error)
	FindByID(ctx context.Context, id string) (*db.User, error)
}

// UserService 负责注册、登录校验与账户查询
type UserService struct {
	users UserStore
	cost  int
}

// NewUserService 构造 UserService，使用 bcrypt 默认强度
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users, cost: bcrypt.DefaultCost}
}

// WithCost 调整 bcrypt 强度，测试中用于加速
func (s *UserService) WithCost(cost int) *UserService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return s
	}
	s.cost = cost
	return s
}

// Register 创建账户，邮箱已存在时返回 ErrUserExists
func (s *UserService) Register(ctx context.Context, email, password string) (*db.User, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, invalid("password", "Password is required")
	}
	if len(password) < minPasswordLength {
		return nil, invalid("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := db.User{Email: normalized, Password: string(hashed)}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("register user: %w", err)
	}
	return &user, nil
}

// Authenticate 校验邮箱与密码，失败统一返回 ErrInvalidCredentials
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*db.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, invalid("email", "Email is required")
	}
	if password == "" {
		return nil, invalid("password", "Password is required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Get 按 ID 返回账户
func (s *UserService) Get(ctx context.Context, id string) (*db.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// EnsureUser 存在性检查：若邮箱与密码均非空且账号不存在，则创建账号。
func (s *UserService) EnsureUser(ctx context.Context, email, password string) (bool, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return false, nil
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, db.ErrNotFound) {
		return false, fmt.Errorf("ensure user: %w", err)
	}

	if _, err := s.Register(ctx, email, password); err != nil {
		if errors.Is(err, ErrUserExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", invalid("email", "Email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email", "Email is invalid")
	}
	return email, nil
}
