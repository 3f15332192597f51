package transport

import (
	"github.com/dep2p/go-sptransport/pkg/lib/aio"
	"github.com/dep2p/go-sptransport/pkg/types"
)

// EndpointHandler 传输提供的端点处理器
type EndpointHandler interface {
	// Stop 要求处理器开始停止
	//
	// 处理器可以继续发送已排队的数据，完成后必须恰好调用一次
	// Endpoint.Stopped。
	Stop()

	// Destroy 释放处理器，只能在 Stopped 之后调用
	Destroy()
}

// Endpoint 端点（一次 Bind 或 Connect 产生的对象）
type Endpoint interface {
	// ID 端点实例 ID
	ID() string

	// Addr 创建时给定的地址字符串（原样返回）
	Addr() string

	// Setup 安装传输处理器，Bind/Connect 成功时恰好调用一次
	Setup(h EndpointHandler)

	// Handler 返回已安装的处理器
	Handler() EndpointHandler

	// Stopped 处理器通知停止已完成
	Stopped()

	// Active 端点是否仍可产生新管道（尚未开始停止）
	Active() bool

	// Context 返回端点所在的执行上下文（即套接字的上下文）
	Context() *aio.Context

	// Socket 返回所属套接字
	Socket() Socket

	// Options 返回端点选项
	Options() types.EndpointOptions

	// GetOption 读取选项（套接字层级或传输层级）
	GetOption(level types.OptionLevel, option int, buf []byte) (int, error)

	// GetIntOption 读取整型选项
	GetIntOption(level types.OptionLevel, option int) (int, error)

	// IsPeer 指定套接字类型是否是合法对端
	IsPeer(st types.SocketType) bool

	// IsPeerOf 两个端点是否互为合法对端
	IsPeerOf(other Endpoint) bool

	// SetError 报告运行时错误（相同错误重复设置为空操作）
	SetError(err error)

	// ClearError 清除错误状态（无错误时为空操作）
	ClearError()

	// IncrementStat 增加套接字统计计数器
	IncrementStat(name types.Stat, delta int64) error
}
