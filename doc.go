// Package sptransport 提供可插拔传输的 SP（Scalability Protocols）套接字库
//
// 库由三部分组成：
//
//   - 传输注册表：按地址前缀（tcp://、inproc://）选择传输，
//     第一个套接字打开时初始化所有传输，最后一个关闭时终止
//   - 端点与管道：传输通过 Endpoint/Pipe 与套接字核心交互，
//     收发完成通过 Sent/Received 通知，实现逐条消息的背压
//   - 套接字核心：在就绪管道之间按优先级轮转收发
//
// # 快速开始
//
//	lib, err := sptransport.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer lib.Close(context.Background())
//
//	pull, _ := lib.Socket(types.SocketPull)
//	pull.Bind("tcp://*:5555")
//
//	push, _ := lib.Socket(types.SocketPush)
//	push.Connect("tcp://127.0.0.1:5555")
//	push.SendContext(ctx, types.NewMessage([]byte("hello")))
//
//	msg, _ := pull.RecvContext(ctx)
//
// # 监控
//
// 端点错误变化、端点停止、管道挂接与摘除以类型化事件发布到
// Library.Bus()，可用 eventbus.Subscribe 订阅。
// 每个套接字的统计通过 Prometheus 收集器导出（WithRegisterer）。
package sptransport
