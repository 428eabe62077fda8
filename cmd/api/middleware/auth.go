package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"sitecms/cmd/api/auth"
	"sitecms/cmd/internal/logger"
)

// TokenParser verifies a bearer token. *auth.JWTManager implements it.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// OptionalAuth 는 토큰이 있으면 검증해서 claims 를 저장하고, 없으면 익명으로 통과시킨다.
// 잘못된 토큰은 401 이다.
func OptionalAuth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractBearerToken(c)
		if errors.Is(err, auth.ErrMissingHeader) {
			c.Next()
			return
		}
		if err != nil {
			auth.AbortWithUnauthorized(c, err)
			return
		}
		if !verify(c, parser, token) {
			return
		}
		c.Next()
	}
}

// RequireAuth 는 유효한 토큰이 없으면 401 로 중단한다.
func RequireAuth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractBearerToken(c)
		if err != nil {
			auth.AbortWithUnauthorized(c, err)
			return
		}
		if !verify(c, parser, token) {
			return
		}
		c.Next()
	}
}

func verify(c *gin.Context, parser TokenParser, token string) bool {
	if parser == nil {
		auth.AbortWithUnauthorized(c, errors.New("authentication is not configured"))
		return false
	}
	claims, err := parser.Parse(token)
	if err != nil {
		logger.DebugWithFields("token parse error", logger.Fields{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		})
		auth.AbortWithUnauthorized(c, errors.New("invalid_token"))
		return false
	}
	auth.SetClaims(c, claims)
	return true
}

// RequirePermission 은 RequireAuth 뒤에 두고, claims 에 perm 이 없으면 403 으로 중단한다.
func RequirePermission(perm auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := auth.ClaimsFrom(c)
		if claims == nil {
			auth.AbortWithUnauthorized(c, auth.ErrMissingHeader)
			return
		}
		if !claims.Has(perm) {
			logger.WarnWithFields("access denied", logger.Fields{
				"subject":    claims.Subject,
				"role":       claims.Role,
				"permission": string(perm),
			})
			auth.AbortWithForbidden(c, perm)
			return
		}
		c.Next()
	}
}
