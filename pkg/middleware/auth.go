package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"vod-service/pkg/errno"
	"vod-service/pkg/restapi"
)

const contextIdentity = "caller_identity"

// ErrInvalidToken token 无法解析或已过期
var ErrInvalidToken = errors.New("invalid token")

// Claims JWT 载荷
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Identity 调用方身份
type Identity struct {
	UserID string
	Role   string
}

// TokenVerifier 校验 HS256 token
type TokenVerifier struct {
	secret []byte
	issuer string
}

func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}
}

// Issue 签发 token，供内部工具与测试使用
func (v *TokenVerifier) Issue(userID, role string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Verify 解析 token 并返回身份
func (v *TokenVerifier) Verify(token string) (*Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{UserID: claims.UserID, Role: claims.Role}, nil
}

// OptionalAuth 有 Bearer token 时解析身份，没有时匿名放行；token 非法返回 401
func OptionalAuth(verifier *TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			restapi.Failed(c, errno.NewBizErrorf(errno.ErrUnauthorized, "invalid authorization header"))
			return
		}
		identity, err := verifier.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			restapi.Failed(c, errno.NewBizErrorf(errno.ErrUnauthorized, "invalid or expired token"))
			return
		}
		c.Set(contextIdentity, identity)
		c.Next()
	}
}

// RequireRoles 要求已认证且角色在列表中
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			restapi.Failed(c, errno.NewBizErrorf(errno.ErrUnauthorized, "authentication required"))
			return
		}
		for _, r := range roles {
			if strings.EqualFold(identity.Role, r) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, restapi.Response{
			Code:    errno.ErrForbidden.Code,
			Message: "insufficient role",
		})
	}
}

// GetIdentity 读取 OptionalAuth 写入的身份
func GetIdentity(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(contextIdentity)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*Identity)
	return identity, ok && identity != nil
}
