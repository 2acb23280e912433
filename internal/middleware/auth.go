package middleware

import (
	"errors"
	"strings"
	"testgen_backend/internal/model"
	"testgen_backend/internal/service"
	"testgen_backend/internal/util"
	"testgen_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware 从 Authorization 头或 token 查询参数读取凭证
func AuthMiddleware(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		}

		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			if errors.Is(err, util.ErrUnauthenticated) {
				logger.Log.Debug("Credential rejected", zap.Error(err))
				util.Unauthorized(c)
			} else {
				util.HandleError(c, err)
			}
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Request = c.Request.WithContext(util.WithActor(c.Request.Context(), user.ID))
		c.Next()
	}
}

// RoleMiddleware 管理员拥有所有角色的权限
func RoleMiddleware(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		hasRole := user.HasRole(model.RoleAdmin)
		for _, role := range roles {
			if hasRole {
				break
			}
			hasRole = user.HasRole(role)
		}

		if !hasRole {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
