// Package mocks 提供统一的测试 Mock 实现
//
// # 核心 Mock
//
//   - MockSocket: 模拟 transport.Socket，记录注册的管道、收到的事件和错误报告
//   - MockEndpointHandler: 模拟 transport.EndpointHandler
//   - MockPipeHandler: 模拟 transport.PipeHandler
//
// # 设计原则
//
// 1. 函数式注入: 每个 Mock 都支持通过 XxxFunc 字段注入自定义行为
// 2. 调用记录: 关键 Mock 记录调用历史，便于验证测试行为
//
// # 使用示例
//
//	sock := mocks.NewMockSocket(types.SocketPush)
//	sock.AddPipeFunc = func(itf.Pipe) error { return itf.ErrPipeRejected }
//
//	h := &mocks.MockPipeHandler{}
//	h.SendFunc = func(msg *types.Message) (types.Flags, error) {
//	    p.Sent() // 同步完成
//	    return 0, nil
//	}
package mocks
