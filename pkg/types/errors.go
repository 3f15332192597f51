package types

import "errors"

// 公共错误定义
var (
	// ErrUnknownSocketType 未知套接字类型
	ErrUnknownSocketType = errors.New("unknown socket type")
)
