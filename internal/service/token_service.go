package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Identity 是认证后得到的调用方身份
type Identity struct {
	UserID    string
	ExpiresAt time.Time
}

// tokenClaims 在标准声明之外携带 userId
type tokenClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenService 签发并校验 HS256 访问令牌
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService 构造 TokenService
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock 替换时间来源，主要用于测试
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	if now == nil {
		return s
	}
	s.now = now
	return s
}

// Issue 为用户签发访问令牌
func (s *TokenService) Issue(userID string) (string, time.Time, error) {
	if strings.TrimSpace(userID) == "" {
		return "", time.Time{}, errors.New("user id is required")
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	claims := tokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Resolve 校验令牌并返回身份；缺失、签名错误或过期都返回 ErrInvalidToken
func (s *TokenService) Resolve(token string) (Identity, error) {
	raw := strings.TrimSpace(token)
	if raw == "" {
		return Identity{}, ErrInvalidToken
	}

	var claims tokenClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}

	// jwt/v4 的校验使用系统时间，这里再按注入时钟检查一次过期
	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return Identity{}, ErrInvalidToken
	}
	if claims.UserID == "" {
		return Identity{}, ErrInvalidToken
	}

	return Identity{UserID: claims.UserID, ExpiresAt: claims.ExpiresAt.Time}, nil
}
