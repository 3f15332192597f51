// Package transport 定义核心与各传输实现之间的边界接口
//
// 核心通过 Descriptor 创建端点（Bind/Connect），端点持有传输提供的
// EndpointHandler；传输在连接建立后为每条连接创建一个管道，
// 管道通过 PipeHandler 完成实际的收发。
//
//	Socket ──Bind/Connect──▶ Descriptor ──Setup──▶ Endpoint ◀──▶ EndpointHandler
//	                                                  │
//	                                                  └──▶ Pipe ◀──▶ PipeHandler
//
// 所有回调都在套接字的 aio.Context 内执行，不允许阻塞。
package transport

import (
	"github.com/dep2p/go-sptransport/pkg/lib/aio"
)

// ============================================================================
//                              Descriptor - 传输描述符
// ============================================================================

// Descriptor 传输注册记录
//
// 注册后不可修改。Init/Term/OptSet 可以为 nil。
type Descriptor struct {
	// Name 地址中的协议名，如 "tcp"、"inproc"
	Name string

	// ID 传输 ID，同时是该传输的选项层级
	ID int

	// Init 库初始化时调用一次（全局临界区内）
	Init func()

	// Term 最后一个套接字关闭时调用一次（全局临界区内）
	Term func()

	// Bind 为新端点安装监听处理器
	//
	// 成功时必须恰好调用一次 ep.Setup；失败时端点保持未安装状态，
	// 由调用者销毁。同一套接字上的 Bind/Connect 不会并发调用。
	Bind func(ep Endpoint) error

	// Connect 为新端点安装连接处理器，约定同 Bind
	Connect func(ep Endpoint) error

	// OptSet 创建传输私有选项集，没有私有选项时为 nil
	OptSet func() OptionSet
}

// Validate 检查描述符是否完整
func (d *Descriptor) Validate() error {
	if d == nil || d.Name == "" || d.Bind == nil || d.Connect == nil {
		return ErrInvalidDescriptor
	}
	if d.ID >= 0 {
		return ErrInvalidDescriptor
	}
	return nil
}

// ============================================================================
//                              OptionSet - 传输私有选项
// ============================================================================

// OptionSet 传输私有选项容器
//
// 由安装它的套接字选项表独占。
type OptionSet interface {
	// Destroy 释放选项集
	Destroy()

	// SetOpt 设置选项
	//
	// 未知选项返回 ErrOptionNotFound，长度不匹配返回 ErrOptionSize。
	SetOpt(option int, value []byte) error

	// GetOpt 读取选项到 buf，返回写入的字节数
	//
	// 未知选项返回 ErrOptionNotFound，buf 长度与选项不一致返回 ErrOptionSize。
	GetOpt(option int, buf []byte) (int, error)
}

// ============================================================================
//                              事件类型
// ============================================================================

const (
	// EventPipeIn 管道可以接收（投递给套接字）
	EventPipeIn = aio.EventUser + iota + 1

	// EventPipeOut 管道可以发送（投递给套接字）
	EventPipeOut

	// EventEndpointStopped 端点已停止（投递给套接字）
	EventEndpointStopped
)
