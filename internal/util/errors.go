package util

import "errors"

// 错误分类，控制器统一映射为 HTTP 状态码
var (
	ErrNotFound        = errors.New("resource not found")
	ErrConflict        = errors.New("resource already exists")
	ErrForbidden       = errors.New("permission denied")
	ErrUnauthenticated = errors.New("invalid or missing credential")
	ErrUnavailable     = errors.New("store unavailable")
	ErrValidation      = errors.New("validation failed")
)

var (
	ErrAssignmentTarget  = errors.New("assignment needs a user or a group")
	ErrTooManyOptions    = errors.New("a question has at most 5 answer options")
	ErrOptionOrder       = errors.New("option_order must be unique and within 1..5")
	ErrSessionClosed     = errors.New("session is not in progress")
	ErrAttemptsExhausted = errors.New("maximum number of attempts reached")
	ErrOptionMismatch    = errors.New("selected option does not belong to the question")
	ErrQuestionNotInTest = errors.New("question is not part of this test")
)
