package middleware

import (
	"net/http"
	"strings"

	"github.com/Baaaki/yamdb/internal/dto"
	"github.com/Baaaki/yamdb/internal/policy"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/utils"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const actorKey = "actor"

// AuthMiddleware resolves the caller into a policy.Actor. Requests without an
// Authorization header continue as anonymous; a bad or stale token is rejected.
// The user row is reloaded on every request so role changes apply immediately.
func AuthMiddleware(jwtSecret string, users *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(actorKey, policy.Anonymous())
			c.Next()
			return
		}

		// 2. Extract token from "Bearer <token>"
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			abortUnauthorized(c, "Invalid authorization format. Use: Bearer <token>")
			return
		}

		// 3. Validate token
		claims, err := utils.ValidateToken(tokenString, jwtSecret)
		if err != nil {
			logger.Log.Debug("Rejected bearer token", zap.String("ip", c.ClientIP()), zap.Error(err))
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		// 4. Load the current user state
		user, err := users.GetUserByID(claims.UserID)
		if err != nil {
			logger.Log.Error("Failed to load token user", zap.String("user_id", claims.UserID.String()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:   "internal_error",
				Message: "internal server error",
			})
			return
		}
		if user == nil {
			abortUnauthorized(c, "User no longer exists")
			return
		}

		// 5. Add actor to context (handlers pass it to services)
		c.Set(actorKey, policy.FromUser(user))
		c.Next()
	}
}

// ActorFrom returns the actor stored by AuthMiddleware, anonymous if none.
func ActorFrom(c *gin.Context) policy.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(policy.Actor); ok {
			return actor
		}
	}
	return policy.Anonymous()
}

func abortUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
		Error:   "unauthorized",
		Message: message,
	})
}
