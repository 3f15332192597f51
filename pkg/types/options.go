package types

// ============================================================================
//                              选项层级
// ============================================================================

// OptionLevel 选项层级
//
// 0 表示套接字通用层级；负数层级与传输 ID 一一对应。
type OptionLevel int

const (
	// LevelSocket 套接字通用选项
	LevelSocket OptionLevel = 0
)

// TransportLevel 返回传输 ID 对应的选项层级
func TransportLevel(transportID int) OptionLevel {
	return OptionLevel(transportID)
}

// ============================================================================
//                              传输 ID
// ============================================================================

const (
	// TransportInproc 进程内传输 ID
	TransportInproc = -1
	// TransportIPC IPC 传输 ID（保留）
	TransportIPC = -2
	// TransportTCP TCP 传输 ID
	TransportTCP = -3
	// TransportWS WebSocket 传输 ID（保留）
	TransportWS = -4
)

// ============================================================================
//                              套接字层级选项编号
// ============================================================================

const (
	// OptLinger 关闭时排空待发送数据的最长时间（毫秒）
	OptLinger = 1
	// OptSndBuf 发送缓冲大小（字节）
	OptSndBuf = 2
	// OptRcvBuf 接收缓冲大小（字节）
	OptRcvBuf = 3
	// OptReconnectIvl 重连间隔（毫秒）
	OptReconnectIvl = 6
	// OptReconnectIvlMax 最大重连间隔（毫秒），0 表示不做指数退避
	OptReconnectIvlMax = 7
	// OptSndPrio 发送优先级（1-16）
	OptSndPrio = 8
	// OptRcvPrio 接收优先级（1-16）
	OptRcvPrio = 9
	// OptProtocol 套接字类型（只读）
	OptProtocol = 13
	// OptIPv4Only 仅使用 IPv4
	OptIPv4Only = 14
	// OptRcvMaxSize 最大接收消息大小（字节），-1 表示不限制
	OptRcvMaxSize = 16
)

// ============================================================================
//                              传输层级选项编号
// ============================================================================

const (
	// OptTCPNoDelay 禁用 Nagle 算法
	OptTCPNoDelay = 1
)

// ============================================================================
//                              端点选项
// ============================================================================

// EndpointOptions 端点/管道级选项
//
// 创建端点时从套接字复制，创建管道时再从端点复制。
type EndpointOptions struct {
	// SndPrio 发送优先级
	SndPrio int

	// RcvPrio 接收优先级
	RcvPrio int

	// IPv4Only 仅使用 IPv4
	IPv4Only bool
}

// DefaultEndpointOptions 返回默认端点选项
func DefaultEndpointOptions() EndpointOptions {
	return EndpointOptions{
		SndPrio:  8,
		RcvPrio:  8,
		IPv4Only: true,
	}
}
