// Package socket 实现最小套接字核心
//
// Socket 是端点与管道的所有者，也是它们的事件接收者：
//   - Bind/Connect 在套接字上下文内调用传输描述符，同一套接字上的
//     端点创建天然串行
//   - 管道通过 AddPipe/RemovePipe 注册，IN/OUT 事件把管道放入就绪列表
//   - Send/Recv 按优先级在就绪管道间轮转，没有就绪管道时返回 ErrAgain；
//     SendContext/RecvContext 等待就绪事件
//   - 端点停止事件到达后销毁端点
//   - 错误状态变化、管道挂接/摘除、端点停止发布到事件总线
//
// 套接字层级选项保存在 optset.Set 中，传输层级选项集在第一次访问时
// 由对应传输的 OptSet 工厂创建。
package socket
