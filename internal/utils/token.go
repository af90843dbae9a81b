package utils

import (
	"errors"
	"time"

	"LocusServer/config"

	"github.com/golang-jwt/jwt/v5"
)

// Claims 访问令牌载荷
type Claims struct {
	UserUUID string `json:"userUuid"` // 用户UUID
	jwt.RegisteredClaims
}

var jwtCfg = config.DefaultJWTConfig()

// InitJWT 覆盖令牌配置，进程启动时调用一次
func InitJWT(cfg config.JWTConfig) {
	jwtCfg = cfg
}

// GenerateToken 为用户签发访问令牌
func GenerateToken(userUUID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserUUID: userUUID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtCfg.Issuer,
			Subject:   userUUID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtCfg.ExpireTime)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtCfg.Secret))
}

// ParseToken 解析并校验访问令牌
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtCfg.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// TokenTTL 返回当前配置的令牌有效期
func TokenTTL() time.Duration {
	return jwtCfg.ExpireTime
}
