package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleUser   = "user"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

// Permission 은 토큰의 permissions 클레임에 담기는 권한 문자열이다.
type Permission string

const (
	PermReadDrafts       Permission = "posts:read_drafts"
	PermWritePosts       Permission = "posts:write"
	PermPublishPosts     Permission = "posts:publish"
	PermDeletePosts      Permission = "posts:delete"
	PermWriteTaxonomy    Permission = "taxonomy:write"
	PermModerateComments Permission = "comments:moderate"
	PermWritePages       Permission = "pages:write"
	PermWriteEvents      Permission = "events:write"
	PermWriteSettings    Permission = "settings:write"
	PermImport           Permission = "import:run"
)

// Claims 는 외부 인증 서버가 발급한 토큰에서 읽어낸 호출자 정보다.
type Claims struct {
	Subject     string
	Name        string
	Email       string
	Role        string
	Permissions []Permission
}

// Has 는 admin 역할이거나 perm 이 명시된 경우 true 를 반환한다.
func (c *Claims) Has(perm Permission) bool {
	if c == nil {
		return false
	}
	if c.Role == RoleAdmin {
		return true
	}
	for _, p := range c.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

var ErrMissingSubject = errors.New("token missing sub claim")

// JWTManager 는 HS256 단일 시크릿 문자열을 사용해 JWT 를 검증한다.
// 토큰 발급은 외부 인증 서버 몫이고 Sign 은 개발/테스트 용도다.
type JWTManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewJWTManager(secret, issuer string) (*JWTManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return &JWTManager{secret: []byte(secret), issuer: issuer, ttl: time.Hour}, nil
}

// NewJWTManagerFromEnv 는 환경변수에서 시크릿/issuer 를 읽어 JWTManager 를 생성한다.
//
// - JWT_SECRET: HS256 서명에 사용할 시크릿 문자열(필수)
// - JWT_ISSUER: iss 클레임 값(선택, 기본값 "sitecms")
func NewJWTManagerFromEnv() (*JWTManager, error) {
	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "sitecms"
	}
	return NewJWTManager(os.Getenv("JWT_SECRET"), issuer)
}

// Sign 은 claims 로 토큰을 만든다.
func (m *JWTManager) Sign(c Claims) (string, error) {
	perms := make([]string, 0, len(c.Permissions))
	for _, p := range c.Permissions {
		perms = append(perms, string(p))
	}
	claims := jwt.MapClaims{
		"sub":         c.Subject,
		"name":        c.Name,
		"email":       c.Email,
		"role":        c.Role,
		"permissions": perms,
		"iss":         m.issuer,
		"exp":         time.Now().Add(m.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *JWTManager) Parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	out := &Claims{}
	out.Subject, _ = mc["sub"].(string)
	out.Name, _ = mc["name"].(string)
	out.Email, _ = mc["email"].(string)
	out.Role, _ = mc["role"].(string)
	if out.Subject == "" {
		return nil, ErrMissingSubject
	}
	if raw, ok := mc["permissions"].([]interface{}); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok && s != "" {
				out.Permissions = append(out.Permissions, Permission(s))
			}
		}
	}
	return out, nil
}
