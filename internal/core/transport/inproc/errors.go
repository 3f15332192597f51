package inproc

import "errors"

var (
	// ErrAddrInUse 名称已被绑定
	ErrAddrInUse = errors.New("inproc address already in use")

	// ErrDisconnected 对端已断开
	ErrDisconnected = errors.New("inproc peer disconnected")
)
