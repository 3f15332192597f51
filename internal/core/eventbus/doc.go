// Package eventbus 实现进程内监控事件总线
//
// 套接字把端点错误状态变化、管道挂接/摘除、端点停止等事件发布到总线，
// 监控方按事件类型订阅。总线按类型分节点，支持：
//   - 多订阅者，每个订阅者独立缓冲
//   - 发射器引用计数
//   - 有状态模式（新订阅者收到最后一个事件）
//   - 慢消费者丢弃，发布方永不阻塞
//
// # 快速开始
//
//	bus := eventbus.NewBus()
//
//	sub, _ := eventbus.Subscribe[types.EvtEndpointError](bus)
//	defer sub.Close()
//
//	em, _ := eventbus.NewEmitter[types.EvtEndpointError](bus)
//	defer em.Close()
//	em.Emit(types.EvtEndpointError{...})
//
//	evt := <-sub.Out()
//
// # 并发安全
//
// 总线节点表由 RWMutex 保护，每个节点另有互斥锁串行化发布与订阅变更。
// 订阅关闭时先从节点摘除再关闭通道，因此发布方不会写入已关闭的通道。
package eventbus
