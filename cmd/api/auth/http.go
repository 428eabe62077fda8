package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"sitecms/apperr"
)

var (
	ErrMissingHeader = errors.New("missing_authorization_header")
	ErrInvalidFormat = errors.New("invalid_authorization_header")
	ErrEmptyToken    = errors.New("empty_token")
)

const ctxKeyClaims = "auth_claims"

// ExtractBearerToken extracts the Bearer token from the Authorization header.
func ExtractBearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", ErrMissingHeader
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrInvalidFormat
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// AbortWithUnauthorized aborts the request with 401 and the standard error body.
func AbortWithUnauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.CodeUnauthorized.HTTPStatus(), gin.H{
		"success": false,
		"message": err.Error(),
		"error":   apperr.CodeUnauthorized,
	})
}

// AbortWithForbidden aborts the request with 403 and the standard error body.
func AbortWithForbidden(c *gin.Context, perm Permission) {
	c.AbortWithStatusJSON(apperr.CodeForbidden.HTTPStatus(), gin.H{
		"success": false,
		"message": "missing permission " + string(perm),
		"error":   apperr.CodeForbidden,
	})
}

// SetClaims stores verified claims on the request.
func SetClaims(c *gin.Context, claims *Claims) { c.Set(ctxKeyClaims, claims) }

// ClaimsFrom returns the verified caller, or nil for anonymous requests.
func ClaimsFrom(c *gin.Context) *Claims {
	v, ok := c.Get(ctxKeyClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
