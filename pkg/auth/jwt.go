package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken 令牌过期、被篡改、格式错误或已注销
var ErrInvalidToken = errors.New("无效的令牌")

// Claims 自定义JWT声明结构体
type Claims struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenService 签发和校验访问令牌，密钥只保存在实例里
type TokenService struct {
	secret    []byte
	expiresIn time.Duration
	issuer    string
	blacklist Blacklist
}

// NewTokenService 创建令牌服务，blacklist 可以为空
func NewTokenService(secret string, expiresIn time.Duration, issuer string, blacklist Blacklist) *TokenService {
	return &TokenService{
		secret:    []byte(secret),
		expiresIn: expiresIn,
		issuer:    issuer,
		blacklist: blacklist,
	}
}

// ExpiresIn 令牌有效期
func (s *TokenService) ExpiresIn() time.Duration {
	return s.expiresIn
}

// Issue 为用户签发令牌
func (s *TokenService) Issue(userID uint, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("签发令牌失败: %w", err)
	}
	return token, nil
}

// Verify 校验令牌，失败时错误均包裹 ErrInvalidToken
func (s *TokenService) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if s.blacklist != nil && s.blacklist.Contains(ctx, claims.ID) {
		return nil, fmt.Errorf("%w: 令牌已注销", ErrInvalidToken)
	}
	return claims, nil
}

// Revoke 注销令牌，直到令牌原本的过期时间为止
func (s *TokenService) Revoke(ctx context.Context, tokenString string) error {
	claims, err := s.parse(tokenString)
	if err != nil {
		return err
	}
	if s.blacklist == nil {
		return errors.New("未配置令牌黑名单")
	}
	return s.blacklist.Add(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *TokenService) parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
