package transport

import (
	"github.com/dep2p/go-sptransport/pkg/lib/aio"
	"github.com/dep2p/go-sptransport/pkg/types"
)

// Socket 套接字核心（端点与管道的所有者）
//
// 端点与管道通过此接口注册管道、报告错误和更新统计；
// 管道的 IN/OUT 事件与端点的停止事件通过 aio.Sink 投递给套接字。
type Socket interface {
	aio.Sink

	// ID 套接字实例 ID
	ID() string

	// Type 套接字类型
	Type() types.SocketType

	// Context 套接字的执行上下文
	Context() *aio.Context

	// EndpointOptions 新端点继承的选项
	EndpointOptions() types.EndpointOptions

	// IsPeer 指定套接字类型是否是合法对端
	IsPeer(st types.SocketType) bool

	// GetOption 读取选项
	GetOption(level types.OptionLevel, option int, buf []byte) (int, error)

	// AddPipe 注册管道用于消息路由
	AddPipe(p Pipe) error

	// RemovePipe 注销管道
	RemovePipe(p Pipe)

	// ReportError 报告端点错误状态变化，errno 为空表示清除
	ReportError(ep Endpoint, errno string)

	// IncrementStat 增加统计计数器
	IncrementStat(name types.Stat, delta int64) error
}
