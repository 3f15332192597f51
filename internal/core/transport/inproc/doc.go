// Package inproc 实现进程内传输
//
// 地址形如 inproc://name。同一传输实例内，绑定端点按名称登记；
// 连接端点在对应名称被绑定时建立会话，绑定端点消失后继续等待下一次绑定。
//
// 每个会话由两条有界队列组成，消息以 FlagParsed 原样交给对端，
// 不做序列化。两端可能属于不同套接字（不同 aio.Context），
// 跨上下文的完成通知一律通过 Context.Post 投递。
//
// # 背压
//
// 写入后队列仍未满时同步完成发送；写满时发送方向被释放，
// 对端取走消息后再通过 Post 通知 Sent。接收方向同理：
// 取走最后一条消息后释放，新消息到达时再通知 Received。
package inproc
