package util

import (
	"fmt"
	"strconv"
	"strings"
	"testgen_backend/internal/model"
)

// Identity 凭证中携带的账户标识，调用方还需确认账户存在且处于激活状态
type Identity struct {
	UserID uint
	Email  string
}

// CredentialIssuer 签发和解析访问凭证
type CredentialIssuer interface {
	Issue(user *model.User) (string, error)
	Parse(credential string) (*Identity, error)
}

// PlainIssuer 签发 user_{id}_{email} 形式的凭证。
//
// 警告：凭证未签名、不过期，任何知道用户 id 和邮箱的人都能伪造。
// 生产环境应使用 auth.scheme=jwt。
type PlainIssuer struct{}

const plainPrefix = "user"

func (PlainIssuer) Issue(user *model.User) (string, error) {
	return fmt.Sprintf("%s_%d_%s", plainPrefix, user.ID, user.Email), nil
}

func (PlainIssuer) Parse(credential string) (*Identity, error) {
	parts := strings.Split(credential, "_")
	if len(parts) < 3 || parts[0] != plainPrefix {
		return nil, ErrUnauthenticated
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || id == 0 {
		return nil, ErrUnauthenticated
	}
	// 邮箱本身可能包含下划线
	email := strings.Join(parts[2:], "_")
	if email == "" {
		return nil, ErrUnauthenticated
	}
	return &Identity{UserID: uint(id), Email: email}, nil
}
