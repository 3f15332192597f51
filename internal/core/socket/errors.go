package socket

import "errors"

var (
	// ErrAgain 没有就绪的管道
	ErrAgain = errors.New("resource temporarily unavailable")

	// ErrClosed 套接字已关闭
	ErrClosed = errors.New("socket closed")

	// ErrEndpointNotFound 端点不存在
	ErrEndpointNotFound = errors.New("endpoint not found")
)
