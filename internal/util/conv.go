package util

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit  = 100
	DefaultOffset = 0
)

// MustParseUint 将字符串转换为无符号整数，解析失败时返回 0
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// ParamID 读取路径参数中的 id，非正整数视为参数错误
func ParamID(c *gin.Context, name string) (uint, error) {
	id := MustParseUint(c.Param(name))
	if id == 0 {
		return 0, fmt.Errorf("%w: invalid %s", ErrValidation, name)
	}
	return id, nil
}

// Pagination 读取 limit/offset，limit 不设上限
func Pagination(c *gin.Context) (limit, offset int, err error) {
	limit, offset = DefaultLimit, DefaultOffset
	if s := c.Query("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil || limit < 0 {
			return 0, 0, fmt.Errorf("%w: invalid limit", ErrValidation)
		}
	}
	if s := c.Query("offset"); s != "" {
		if offset, err = strconv.Atoi(s); err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("%w: invalid offset", ErrValidation)
		}
	}
	return limit, offset, nil
}

// QueryBool 解析布尔查询参数，缺省时返回 def
func QueryBool(c *gin.Context, name string, def bool) (bool, error) {
	s := c.Query(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def, fmt.Errorf("%w: invalid %s", ErrValidation, name)
	}
	return v, nil
}

// QueryUintPtr 解析可选的 id 查询参数
func QueryUintPtr(c *gin.Context, name string) (*uint, error) {
	s := c.Query(name)
	if s == "" {
		return nil, nil
	}
	id := MustParseUint(s)
	if id == 0 {
		return nil, fmt.Errorf("%w: invalid %s", ErrValidation, name)
	}
	return &id, nil
}

// ParseIDList 解析 "1,2,3" 形式的 id 列表
func ParseIDList(s string) ([]uint, error) {
	var ids []uint
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id := MustParseUint(part)
		if id == 0 {
			return nil, fmt.Errorf("%w: invalid id %q", ErrValidation, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
