// Package tcp 实现基于 TCP 的 SP 传输
//
// # 地址格式
//
//	tcp://127.0.0.1:5555    连接
//	tcp://*:5555            绑定所有接口
//
// 套接字选项 IPV4ONLY 为真时只使用 IPv4。
//
// # 线路格式
//
// 连接建立后双方各发送 8 字节头部：
//
//	00 'S' 'P' 00 <协议号:2 BE> 00 00
//
// 对端协议号与本端不兼容时断开。之后每条消息编码为
// <长度:8 BE><载荷>，超过 RCVMAXSIZE 的消息导致断开。
//
// # 连接管理
//
// 连接端点断开后按 RECONNECT_IVL 重连，设置了 RECONNECT_IVL_MAX 时
// 间隔逐次翻倍直至上限。端点停止时待发送的消息在 LINGER 时间内尽量发出。
//
// 网络读写在独立 goroutine 中进行，所有状态变更通过 aio.Context.Post
// 回到套接字上下文。
package tcp
