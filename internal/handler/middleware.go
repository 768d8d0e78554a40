package handler

import (
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"avengerhq/internal/model"
	"avengerhq/internal/repository"
	"avengerhq/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

const ctxMemberKey = "currentMember"

// LoggerMiddleware 日志中间件
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if query != "" {
			path = path + "?" + query
		}

		log.Printf("[HTTP] %d | %13v | %15s | %-7s %s",
			status,
			latency,
			c.ClientIP(),
			c.Request.Method,
			path,
		)
	}
}

// RecoveryMiddleware 恢复中间件，防止 panic 导致服务崩溃
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[PANIC] %v", err)
				c.AbortWithStatusJSON(500, gin.H{
					"code":    500,
					"message": "服务器内部错误",
				})
			}
		}()
		c.Next()
	}
}

// CORSMiddleware 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// JWTAuthMiddleware 认证中间件
//
// 令牌由外部身份服务签发，claims 里只取成员 ID；
// 角色、在册状态每次都从数据库重新读取，不信任调用方自报的角色
func JWTAuthMiddleware(db *gorm.DB, secret string) gin.HandlerFunc {
	memberRepo := repository.NewMemberRepository(db)

	return func(c *gin.Context) {
		tokenString, err := extractBearerToken(c)
		if err != nil {
			response.Unauthorized(c, err.Error())
			c.Abort()
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("签名算法不支持")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			response.Unauthorized(c, "令牌无效或已过期")
			c.Abort()
			return
		}

		memberID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			response.Unauthorized(c, "令牌主体无效")
			c.Abort()
			return
		}

		member, err := memberRepo.GetByID(c.Request.Context(), memberID)
		if err != nil {
			if errors.Is(err, repository.ErrMemberNotFound) {
				response.Unauthorized(c, "成员不存在")
			} else {
				response.ServerError(c, "查询成员失败")
			}
			c.Abort()
			return
		}
		if !member.Alive {
			response.Forbidden(c, "成员已离队")
			c.Abort()
			return
		}

		c.Set(ctxMemberKey, member)
		c.Next()
	}
}

// RequireRole 角色守卫，读取的是认证中间件从数据库加载的角色
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := CurrentMember(c)
		if member == nil || member.Role != role {
			response.Forbidden(c, "无权访问")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentMember 取出当前认证成员
func CurrentMember(c *gin.Context) *model.Member {
	v, ok := c.Get(ctxMemberKey)
	if !ok {
		return nil
	}
	member, ok := v.(*model.Member)
	if !ok {
		return nil
	}
	return member
}

func extractBearerToken(c *gin.Context) (string, error) {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return "", errors.New("缺少 Authorization 头")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("Authorization 格式错误")
	}
	return parts[1], nil
}
