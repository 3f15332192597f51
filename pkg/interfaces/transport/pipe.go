package transport

import (
	"github.com/dep2p/go-sptransport/pkg/types"
)

// PipeHandler 传输提供的管道处理器
//
// Send/Recv 只在对应方向就绪时被调用。如果操作在调用返回前已经完成，
// 处理器应当在返回前调用 Pipe.Sent / Pipe.Received；否则该方向进入
// RELEASE 状态，直到处理器稍后调用 Sent / Received 重新就绪。
type PipeHandler interface {
	// Send 发送一条消息
	Send(msg *types.Message) (types.Flags, error)

	// Recv 取出一条已完整接收的消息
	Recv() (*types.Message, types.Flags, error)
}

// Pipe 一条有序的消息连接（核心视角）
type Pipe interface {
	// ID 管道实例 ID
	ID() string

	// Endpoint 返回创建该管道的端点
	Endpoint() Endpoint

	// Send 发送消息，返回的 Flags 中 FlagRelease 表示该方向暂不可用
	Send(msg *types.Message) (types.Flags, error)

	// Recv 接收消息
	Recv() (*types.Message, types.Flags, error)

	// Options 返回管道选项副本
	Options() types.EndpointOptions

	// GetOption 读取选项
	GetOption(level types.OptionLevel, option int, buf []byte) (int, error)

	// IsPeer 指定套接字类型是否是合法对端
	IsPeer(st types.SocketType) bool
}
