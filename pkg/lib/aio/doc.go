// Package aio 提供端点与管道所依赖的异步执行原语
//
// # 核心概念
//
//   - Context：一个执行上下文（临界区）。同一 Context 内的所有状态
//     只能在 Enter/Leave 之间修改。
//   - Event / Sink：在 Context 内通过 Raise 发出的事件进入有序队列，
//     在 Leave 时按发出顺序逐一投递给目标 Sink，每个事件恰好投递一次。
//   - Post：从任意 goroutine 向 Context 提交一个函数，函数按提交顺序
//     在 Context 内异步执行。跨上下文的通知一律使用 Post，避免嵌套加锁。
//   - Timer：基于 benbjohnson/clock 的一次性定时器，超时后向所有者
//     发出 EventTimeout。Stop 之后不会再投递超时事件。
//
// # 使用示例
//
//	ctx := aio.NewContext()
//	ctx.Enter()
//	ctx.Raise(sink, src, aio.EventTimeout)
//	ctx.Leave() // 在这里投递事件
//
// # 并发安全
//
// Sink.Feed 在 Context 内被调用，不得再次调用 Enter/Do/Sync。
package aio
