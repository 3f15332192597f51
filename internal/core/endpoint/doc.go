// Package endpoint 实现端点生命周期状态机
//
// 端点是一次 Bind 或 Connect 的产物：创建时由传输描述符安装
// EndpointHandler，之后经历
//
//	Created ──Start──▶ Running ──Stop──▶ Stopping ──Stopped──▶ Stopped ──Destroy──▶ Destroyed
//
// 所有方法都在所属套接字的 aio.Context 内调用。端点还负责错误状态簿记：
// 从无错误进入错误状态时 CURRENT_EP_ERRORS 加一，清除时减一，
// 每次真实变化都通过 Socket.ReportError 上报。
package endpoint
