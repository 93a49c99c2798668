package jwt

import (
	"strconv"
	"strings"

	"message-center/internal/model"
	"message-center/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	// ContextIdentityKey 身份信息在gin.Context中的键名
	ContextIdentityKey = "identity"
	// ContextClaimsKey JWT声明在gin.Context中的键名
	ContextClaimsKey = "jwt_claims"
)

// AuthMiddleware JWT认证中间件
// 从请求头中提取Authorization: Bearer <token>
// 验证token并将解析出的身份信息存入gin.Context
func (s *JWTService) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从请求头获取Authorization
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "缺少Authorization请求头")
			c.Abort()
			return
		}

		// 检查Bearer前缀
		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(c, "Authorization格式错误，应为Bearer <token>")
			c.Abort()
			return
		}

		// 提取token
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			response.Unauthorized(c, "token不能为空")
			c.Abort()
			return
		}

		// 验证token
		claims, err := s.ValidateToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "token无效或已过期")
			c.Abort()
			return
		}

		// 从声明还原身份信息
		userID, err := strconv.ParseUint(claims.Subject, 10, 32)
		if err != nil || userID == 0 {
			response.Unauthorized(c, "token身份信息无效")
			c.Abort()
			return
		}

		identity := model.Identity{ID: uint(userID)}
		if claims.Data != nil {
			if v, ok := claims.Data["name"].(string); ok {
				identity.Name = v
			}
			if v, ok := claims.Data["email"].(string); ok {
				identity.Email = v
			}
			if v, ok := claims.Data["role"].(string); ok {
				identity.Role = v
			}
		}

		// 将身份信息存入Context
		c.Set(ContextIdentityKey, identity)
		c.Set(ContextClaimsKey, claims)

		c.Next()
	}
}

// GetIdentity 从gin.Context中获取当前身份信息
func GetIdentity(c *gin.Context) (model.Identity, bool) {
	if v, exists := c.Get(ContextIdentityKey); exists {
		if id, ok := v.(model.Identity); ok {
			return id, true
		}
	}
	return model.Identity{}, false
}

// GetClaims 从gin.Context中获取JWT声明
func GetClaims(c *gin.Context) *CustomClaims {
	if claims, exists := c.Get(ContextClaimsKey); exists {
		if cc, ok := claims.(*CustomClaims); ok {
			return cc
		}
	}
	return nil
}
