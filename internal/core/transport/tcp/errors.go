package tcp

import "errors"

var (
	// ErrBadHeader 协议头部无效
	ErrBadHeader = errors.New("invalid SP protocol header")

	// ErrMessageTooLarge 消息超过 RCVMAXSIZE
	ErrMessageTooLarge = errors.New("message exceeds receive size limit")

	// ErrInvalidAddress 地址格式无效
	ErrInvalidAddress = errors.New("invalid tcp address")

	// errClosing 本端主动关闭会话
	errClosing = errors.New("session closing")
)
