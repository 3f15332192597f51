// Package pipe 实现管道状态机与收发背压协议
//
// 管道是传输在连接建立后创建的有序消息流，注册到套接字参与路由。
// 收发两个方向各有独立的子状态：
//
//	Ready ──Send/Recv──▶ Busy ──┬── 处理器在调用内完成（Sent/Received）──▶ Ready
//	                            └── 调用返回时未完成 ──▶ Released ──Sent/Received──▶ Ready + 事件
//
// Released 期间套接字不得再调用该方向，直到管道通过 Sent/Received
// 重新就绪并向套接字发出 EventPipeOut/EventPipeIn。这是边沿触发协议：
// 没有先 Release 就重新就绪属于协议违例，记录后立即 panic。
//
// 所有方法都在套接字的 aio.Context 内调用，每个管道只有一个写者。
package pipe
