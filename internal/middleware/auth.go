package middleware

import (
	"net/http"

	apperrors "github.com/vinayak-88/LoviNova/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// CtxUserID is the gin context key holding the authenticated caller's id.
const CtxUserID = "userId"

const authCookie = "token"

// Auth resolves the caller to a stable user id from the session cookie, or
// rejects the request as unauthenticated.
func Auth(secret string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie(authCookie)
		if err != nil || tokenStr == "" {
			abortUnauthenticated(c)
			return
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			logger.Debug("rejected token", zap.Error(err))
			abortUnauthenticated(c)
			return
		}

		userID, err := token.Claims.GetSubject()
		if err != nil || userID == "" {
			abortUnauthenticated(c)
			return
		}

		c.Set(CtxUserID, userID)
		c.Next()
	}
}

// CallerID returns the authenticated user id set by Auth.
func CallerID(c *gin.Context) string {
	return c.GetString(CtxUserID)
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    apperrors.CodeUnauthenticated,
		"message": "authentication required",
	})
}
