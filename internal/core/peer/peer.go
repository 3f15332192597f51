// Package peer 实现套接字类型兼容性检查
//
// 两个端点只有在双方都接受对方的套接字类型时才能互联，
// 例如 PUB 不能连接 PUB。检查是纯函数，可以在握手阶段投机性地调用。
package peer

import "github.com/dep2p/go-sptransport/pkg/types"

// pairs 合法的对端组合（无序）
var pairs = map[types.SocketType][]types.SocketType{
	types.SocketPair:       {types.SocketPair},
	types.SocketPub:        {types.SocketSub},
	types.SocketSub:        {types.SocketPub},
	types.SocketReq:        {types.SocketRep},
	types.SocketRep:        {types.SocketReq},
	types.SocketPush:       {types.SocketPull},
	types.SocketPull:       {types.SocketPush},
	types.SocketSurveyor:   {types.SocketRespondent},
	types.SocketRespondent: {types.SocketSurveyor},
	types.SocketBus:        {types.SocketBus},
}

// Accepts local 类型的套接字是否接受 remote 类型的对端（单向）
func Accepts(local, remote types.SocketType) bool {
	if local.Family() != remote.Family() {
		return false
	}
	for _, st := range pairs[local] {
		if st == remote {
			return true
		}
	}
	return false
}

// Compatible 两种套接字类型是否可以互联
//
// 双方独立判断并且都接受时才返回 true，因此结果对参数顺序对称。
func Compatible(a, b types.SocketType) bool {
	return Accepts(a, b) && Accepts(b, a)
}

// Known 是否是已知套接字类型
func Known(st types.SocketType) bool {
	_, ok := pairs[st]
	return ok
}
