// Package lib 包含基础设施工具库
//
// 本目录包含与具体传输无关的通用工具库：
//
//   - log: 日志封装
//   - aio: 异步执行上下文、事件投递与定时器
//
// # 与 pkg/ 其他目录的关系
//
//   - interfaces/: 传输边界接口（架构核心）
//   - types/: 公共类型定义（架构核心）
//   - lib/: 基础设施工具库（本目录）
package lib
