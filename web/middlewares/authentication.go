package middlewares

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"wolfgym.com/wolfgym/web/common"
)

// SessionCookie is where the admin frontend keeps its token.
const SessionCookie = "wolfgym.SessionCookie"

// InternalCallHeader lets the scheduler worker hit maintenance endpoints
// without a session. The middleware only honors it when the configured
// internal secret matches.
const InternalCallHeader = "X-Internal-Call"

func parseJwt(tokenStr string, jwtSecret []byte) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret, nil
	})
	return token, err
}

// Authentication checks for a valid Bearer token or session cookie and stores
// the claims in the context.
func Authentication(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := ""

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			cookie, err := c.Cookie(SessionCookie)
			if err != nil {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			tokenStr = cookie
		} else {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			tokenStr = parts[1]
		}

		token, err := parseJwt(tokenStr, jwtSecret)
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, common.NewErrorResponse("invalid or expired token"))
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if exp, ok := claims["exp"].(float64); ok && int64(exp) < time.Now().Unix() {
				c.AbortWithStatusJSON(http.StatusUnauthorized, common.NewErrorResponse("token expired"))
				return
			}
			c.Set("claims", claims)
		}

		c.Next()
	}
}

// RequireAdmin rejects sessions whose token does not carry the admin role.
// Must run after Authentication.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := c.Get("claims")
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		mapClaims, ok := claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if role, _ := mapClaims["role"].(string); role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, common.NewErrorResponse("admin role required"))
			return
		}
		c.Next()
	}
}

// InternalOrAuthenticated passes requests carrying the internal secret header
// straight through; everything else goes through the normal token check.
func InternalOrAuthenticated(jwtSecret []byte, internalSecret string) gin.HandlerFunc {
	auth := Authentication(jwtSecret)
	return func(c *gin.Context) {
		if internalSecret != "" && c.GetHeader(InternalCallHeader) == internalSecret {
			c.Next()
			return
		}
		auth(c)
	}
}

// CreateJWT mints an HS256 token for the given subject and role.
func CreateJWT(jwtSecret []byte, subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}
