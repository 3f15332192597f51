package types

import "fmt"

// ============================================================================
//                              SocketType - 套接字类型
// ============================================================================

// SocketType 套接字类型（SP 协议号）
//
// 高 12 位为协议族，低 4 位区分同一协议族中的角色。
type SocketType int

const (
	// SocketPair 一对一双向
	SocketPair SocketType = 1*16 + 0

	// SocketPub 发布端
	SocketPub SocketType = 2*16 + 0
	// SocketSub 订阅端
	SocketSub SocketType = 2*16 + 1

	// SocketReq 请求端
	SocketReq SocketType = 3*16 + 0
	// SocketRep 应答端
	SocketRep SocketType = 3*16 + 1

	// SocketPush 推送端
	SocketPush SocketType = 5*16 + 0
	// SocketPull 拉取端
	SocketPull SocketType = 5*16 + 1

	// SocketSurveyor 调查端
	SocketSurveyor SocketType = 6*16 + 2
	// SocketRespondent 应答调查端
	SocketRespondent SocketType = 6*16 + 3

	// SocketBus 总线
	SocketBus SocketType = 7*16 + 0
)

// Family 返回协议族（低 4 位清零）
func (st SocketType) Family() int {
	return int(st) & 0xfff0
}

// String 返回套接字类型的字符串表示
func (st SocketType) String() string {
	switch st {
	case SocketPair:
		return "pair"
	case SocketPub:
		return "pub"
	case SocketSub:
		return "sub"
	case SocketReq:
		return "req"
	case SocketRep:
		return "rep"
	case SocketPush:
		return "push"
	case SocketPull:
		return "pull"
	case SocketSurveyor:
		return "surveyor"
	case SocketRespondent:
		return "respondent"
	case SocketBus:
		return "bus"
	default:
		return fmt.Sprintf("unknown(%d)", int(st))
	}
}

// ParseSocketType 解析套接字类型名称
func ParseSocketType(s string) (SocketType, error) {
	for _, st := range AllSocketTypes() {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSocketType, s)
}

// AllSocketTypes 返回所有已知的套接字类型
func AllSocketTypes() []SocketType {
	return []SocketType{
		SocketPair,
		SocketPub, SocketSub,
		SocketReq, SocketRep,
		SocketPush, SocketPull,
		SocketSurveyor, SocketRespondent,
		SocketBus,
	}
}
