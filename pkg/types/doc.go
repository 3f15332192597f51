// Package types 定义 go-sptransport 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在传输边界两侧传递数据。
//
// # 文件组织
//
//   - enums.go   - SocketType（SP 协议号）
//   - options.go - 选项层级与选项编号
//   - stats.go   - 统计计数器名称及其种类
//   - message.go - Message、Flags（RELEASE / PARSED）
//   - events.go  - 监控事件类型
//   - errors.go  - 公共错误定义
package types
