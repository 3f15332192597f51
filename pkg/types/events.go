package types

import "time"

// ============================================================================
//                              监控事件
// ============================================================================

// EvtEndpointError 端点错误状态变化事件
//
// 只有状态真正变化时才会发出；Cleared 为 true 表示错误已消除。
type EvtEndpointError struct {
	SocketID   string
	EndpointID string
	Addr       string
	Errno      string
	Cleared    bool
	Time       time.Time
}

// EvtEndpointStopped 端点停止完成事件
type EvtEndpointStopped struct {
	SocketID   string
	EndpointID string
	Addr       string
	Time       time.Time
}

// EvtPipeAttached 管道已注册到套接字
type EvtPipeAttached struct {
	SocketID   string
	EndpointID string
	PipeID     string
	Time       time.Time
}

// EvtPipeDetached 管道已从套接字注销
type EvtPipeDetached struct {
	SocketID   string
	EndpointID string
	PipeID     string
	Time       time.Time
}
