package types

import "fmt"

// ============================================================================
//                              Stat - 统计计数器名称
// ============================================================================

// Stat 统计计数器名称
//
// 1xx 为连接事件计数器，2xx 为当前状态量，3xx 为流量计数器，4xx 为属性值。
type Stat int

const (
	// StatEstablishedConnections 成功建立的出站连接数
	StatEstablishedConnections Stat = 101
	// StatAcceptedConnections 接受的入站连接数
	StatAcceptedConnections Stat = 102
	// StatDroppedConnections 建立前被丢弃的连接数（握手失败或套接字拒绝管道）
	StatDroppedConnections Stat = 103
	// StatBrokenConnections 建立后异常断开的连接数
	StatBrokenConnections Stat = 104
	// StatConnectErrors 连接失败次数
	StatConnectErrors Stat = 105
	// StatBindErrors 绑定失败次数
	StatBindErrors Stat = 106
	// StatAcceptErrors 接受连接失败次数
	StatAcceptErrors Stat = 107

	// StatCurrentConnections 当前连接数
	StatCurrentConnections Stat = 201
	// StatInProgressConnections 正在建立的连接数
	StatInProgressConnections Stat = 202
	// StatCurrentEPErrors 当前处于错误状态的端点数
	StatCurrentEPErrors Stat = 203

	// StatMessagesSent 发送消息数
	StatMessagesSent Stat = 301
	// StatMessagesReceived 接收消息数
	StatMessagesReceived Stat = 302
	// StatBytesSent 发送字节数
	StatBytesSent Stat = 303
	// StatBytesReceived 接收字节数
	StatBytesReceived Stat = 304

	// StatCurrentSndPriority 当前发送优先级
	StatCurrentSndPriority Stat = 401
)

// StatKind 计数器种类
type StatKind int

const (
	// StatKindCounter 单调递增计数器，拒绝负增量
	StatKindCounter StatKind = iota
	// StatKindGauge 状态量，允许负增量但不得小于零
	StatKindGauge
)

// Kind 返回计数器种类
func (s Stat) Kind() StatKind {
	switch s / 100 {
	case 2, 4:
		return StatKindGauge
	default:
		return StatKindCounter
	}
}

// String 返回计数器名称
func (s Stat) String() string {
	switch s {
	case StatEstablishedConnections:
		return "established_connections"
	case StatAcceptedConnections:
		return "accepted_connections"
	case StatDroppedConnections:
		return "dropped_connections"
	case StatBrokenConnections:
		return "broken_connections"
	case StatConnectErrors:
		return "connect_errors"
	case StatBindErrors:
		return "bind_errors"
	case StatAcceptErrors:
		return "accept_errors"
	case StatCurrentConnections:
		return "current_connections"
	case StatInProgressConnections:
		return "inprogress_connections"
	case StatCurrentEPErrors:
		return "current_ep_errors"
	case StatMessagesSent:
		return "messages_sent"
	case StatMessagesReceived:
		return "messages_received"
	case StatBytesSent:
		return "bytes_sent"
	case StatBytesReceived:
		return "bytes_received"
	case StatCurrentSndPriority:
		return "current_snd_priority"
	default:
		return fmt.Sprintf("stat(%d)", int(s))
	}
}

// AllStats 返回所有已知计数器
func AllStats() []Stat {
	return []Stat{
		StatEstablishedConnections,
		StatAcceptedConnections,
		StatDroppedConnections,
		StatBrokenConnections,
		StatConnectErrors,
		StatBindErrors,
		StatAcceptErrors,
		StatCurrentConnections,
		StatInProgressConnections,
		StatCurrentEPErrors,
		StatMessagesSent,
		StatMessagesReceived,
		StatBytesSent,
		StatBytesReceived,
		StatCurrentSndPriority,
	}
}
