package mocks

import (
	"sync"

	itf "github.com/dep2p/go-sptransport/pkg/interfaces/transport"
	"github.com/dep2p/go-sptransport/pkg/types"
)

// MockEndpointHandler 模拟 transport.EndpointHandler 接口实现
type MockEndpointHandler struct {
	// 可覆盖的方法
	StopFunc    func()
	DestroyFunc func()

	// 调用记录
	StopCalls    int
	DestroyCalls int
}

var _ itf.EndpointHandler = (*MockEndpointHandler)(nil)

// Stop 记录调用
func (m *MockEndpointHandler) Stop() {
	m.StopCalls++
	if m.StopFunc != nil {
		m.StopFunc()
	}
}

// Destroy 记录调用
func (m *MockEndpointHandler) Destroy() {
	m.DestroyCalls++
	if m.DestroyFunc != nil {
		m.DestroyFunc()
	}
}

// MockPipeHandler 模拟 transport.PipeHandler 接口实现
//
// 默认 Send 记录消息并异步完成（不调用 Sent）；默认 Recv 返回 Inbox 队首。
type MockPipeHandler struct {
	// 可覆盖的方法
	SendFunc func(msg *types.Message) (types.Flags, error)
	RecvFunc func() (*types.Message, types.Flags, error)

	// Inbox 默认 Recv 的数据源
	Inbox []*types.Message

	// 调用记录
	mu        sync.Mutex
	Sent      []*types.Message
	SendCalls int
	RecvCalls int
}

var _ itf.PipeHandler = (*MockPipeHandler)(nil)

// Send 记录消息
func (m *MockPipeHandler) Send(msg *types.Message) (types.Flags, error) {
	m.mu.Lock()
	m.SendCalls++
	m.Sent = append(m.Sent, msg)
	m.mu.Unlock()

	if m.SendFunc != nil {
		return m.SendFunc(msg)
	}
	return 0, nil
}

// Recv 返回 Inbox 队首
func (m *MockPipeHandler) Recv() (*types.Message, types.Flags, error) {
	m.mu.Lock()
	m.RecvCalls++
	var msg *types.Message
	if m.RecvFunc == nil && len(m.Inbox) > 0 {
		msg = m.Inbox[0]
		m.Inbox = m.Inbox[1:]
	}
	m.mu.Unlock()

	if m.RecvFunc != nil {
		return m.RecvFunc()
	}
	return msg, 0, nil
}
