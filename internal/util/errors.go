package util

import "errors"

// 连续学习模块的错误分类。这些错误只用于内部归类和日志，
// 对外的流式操作全部就地降级，不向调用方传播。
var (
	ErrNoIdentity        = errors.New("no signed-in user")
	ErrRemoteUnavailable = errors.New("remote streak store unavailable")
	ErrLocalUnavailable  = errors.New("local streak cache unavailable")
	ErrMalformedRecord   = errors.New("malformed stored streak record")

	ErrUserNotFound    = errors.New("用户不存在")
	ErrEmailRegistered = errors.New("该邮箱已被注册")
)
