package transport

// ============================================================================
//                              错误定义
// ============================================================================

// 选项错误
var (
	// ErrOptionNotFound 未知选项或选项层级
	ErrOptionNotFound = transportError("option not found")

	// ErrOptionSize 选项值长度不匹配
	ErrOptionSize = transportError("invalid option size")

	// ErrOptionValue 选项值非法
	ErrOptionValue = transportError("invalid option value")
)

// 注册表错误
var (
	// ErrTransportExists 传输已存在
	ErrTransportExists = transportError("transport already registered")

	// ErrTransportNotFound 传输不存在
	ErrTransportNotFound = transportError("transport not found for scheme")

	// ErrInvalidDescriptor 描述符不完整
	ErrInvalidDescriptor = transportError("invalid transport descriptor")

	// ErrInvalidAddress 地址格式错误
	ErrInvalidAddress = transportError("invalid address")
)

// 生命周期错误
var (
	// ErrNotStartable 对象不处于可启动状态
	ErrNotStartable = transportError("not in a startable state")

	// ErrPeerMismatch 对端套接字类型不兼容
	ErrPeerMismatch = transportError("incompatible peer socket type")

	// ErrPipeRejected 套接字拒绝注册管道
	ErrPipeRejected = transportError("pipe rejected by socket")
)

// transportError 传输错误类型
type transportError string

func (e transportError) Error() string {
	return string(e)
}
