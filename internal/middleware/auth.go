package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"catalog/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	// ServiceTokenHeader carries the shared secret used by upstream systems to trigger syncs.
	ServiceTokenHeader = "X-Service-Token"

	ctxUserID   = "userID"
	ctxUserRole = "userRole"
	ctxService  = "serviceCall"
)

// Authenticator validates admin JWTs and the service-to-service sync token.
type Authenticator struct {
	secret        []byte
	syncTokenHash []byte
}

// NewAuthenticator creates an Authenticator. An empty syncTokenHash disables service-token access.
func NewAuthenticator(secret, syncTokenHash string) *Authenticator {
	return &Authenticator{secret: []byte(secret), syncTokenHash: []byte(syncTokenHash)}
}

// RequireRole Middleware validates the JWT token and checks if the user's role exists in the allowedRoles list
func (a *Authenticator) RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if status, msg := a.authorize(c, allowedRoles); status != 0 {
			c.AbortWithStatusJSON(status, response.Error(status, msg))
			return
		}
		c.Next()
	}
}

// RequireRoleOrServiceToken accepts either a valid service token header or an admin JWT.
// A present but wrong service token is rejected without falling back to the JWT.
func (a *Authenticator) RequireRoleOrServiceToken(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := c.GetHeader(ServiceTokenHeader); token != "" {
			if len(a.syncTokenHash) == 0 || bcrypt.CompareHashAndPassword(a.syncTokenHash, []byte(token)) != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid service token"))
				return
			}
			c.Set(ctxService, true)
			c.Next()
			return
		}

		if status, msg := a.authorize(c, allowedRoles); status != 0 {
			c.AbortWithStatusJSON(status, response.Error(status, msg))
			return
		}
		c.Next()
	}
}

// authorize returns a non-zero status with a message when the request must be rejected.
func (a *Authenticator) authorize(c *gin.Context, allowedRoles []string) (int, string) {
	// Try cookie first, fallback to Authorization header
	tokenString, cookieErr := c.Cookie("access_token")
	if cookieErr != nil || tokenString == "" {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			return http.StatusUnauthorized, "Authorization is missing"
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"
		}
		tokenString = parts[1]
	}

	claims, err := ParseToken(tokenString, a.secret)
	if err != nil {
		return http.StatusUnauthorized, "Invalid token: " + err.Error()
	}

	userRole, ok := claims["role"].(string)
	if !ok {
		return http.StatusForbidden, "Role not found in token"
	}

	roleAllowed := false
	for _, role := range allowedRoles {
		if userRole == role {
			roleAllowed = true
			break
		}
	}
	if !roleAllowed {
		return http.StatusForbidden, "Access denied: insufficient permissions"
	}

	if sub, ok := claims["sub"]; ok {
		c.Set(ctxUserID, fmt.Sprint(sub))
	}
	c.Set(ctxUserRole, userRole)
	return 0, ""
}

// ParseToken verifies an HMAC-signed JWT and returns its claims.
func ParseToken(tokenString string, secret []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// Actor identifies who made the request: the JWT subject, "service" for token calls, or "".
func Actor(c *gin.Context) string {
	if id := c.GetString(ctxUserID); id != "" {
		return id
	}
	if c.GetBool(ctxService) {
		return "service"
	}
	return ""
}
