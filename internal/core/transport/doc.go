// Package transport 实现传输注册表
//
// Registry 保存所有已注册的传输描述符（按协议名和 ID 双索引），
// 并维护库级引用计数：第一个套接字打开时在全局临界区内调用每个传输的
// Init，最后一个套接字关闭时按逆序调用 Term。
//
// # 支持的传输
//
//   - tcp: tcp://host:port，SP 头部握手与 64 位长度前缀分帧
//   - inproc: inproc://name，进程内传输
//
// # 使用示例
//
//	reg := transport.NewRegistry()
//	_ = reg.Register(tcp.New(tcp.DefaultConfig()).Descriptor())
//
//	reg.Acquire()       // 套接字打开
//	desc, rest, err := reg.Lookup("tcp://127.0.0.1:5555")
//	_ = desc.Connect(ep)
//	reg.Release()       // 套接字关闭
//
// # 并发安全
//
// 注册表自身由 RWMutex 保护；Init/Term 由包级互斥锁串行化，
// 多个注册表共享同一临界区。
//
// # Fx 模块集成
//
//	app := fx.New(
//	    transport.Module(),
//	    fx.Invoke(func(reg *transport.Registry) {
//	        // 创建套接字
//	    }),
//	)
package transport
