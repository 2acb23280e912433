package util

import (
	"errors"
	"testgen_backend/internal/model"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// JWTIssuer 使用 HS256 签名、带过期时间的凭证
type JWTIssuer struct {
	Secret     []byte
	Expiration time.Duration
}

func NewJWTIssuer(secret string, expiration time.Duration) *JWTIssuer {
	return &JWTIssuer{Secret: []byte(secret), Expiration: expiration}
}

func (j *JWTIssuer) Issue(user *model.User) (string, error) {
	expirationTime := time.Now().Add(j.Expiration)

	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

func (j *JWTIssuer) Parse(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return j.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errors.Join(ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrUnauthenticated
	}
	return &Identity{UserID: claims.UserID, Email: claims.Email}, nil
}

// CurrentUser 认证中间件放入上下文的调用者信息
type CurrentUser struct {
	ID    uint
	Email string
	Roles []string
}

func (u *CurrentUser) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// IsStaff 教师和管理员可以查看他人的数据
func (u *CurrentUser) IsStaff() bool {
	return u.HasRole(model.RoleAdmin) || u.HasRole(model.RoleTeacher)
}

func GetUserFromContext(c *gin.Context) *CurrentUser {
	user, exists := c.Get("user")
	if !exists {
		return nil
	}
	current, ok := user.(*CurrentUser)
	if !ok {
		return nil
	}
	return current
}
