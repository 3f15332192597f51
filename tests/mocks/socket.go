package mocks

import (
	"sync"

	"github.com/dep2p/go-sptransport/internal/core/metrics"
	"github.com/dep2p/go-sptransport/internal/core/optset"
	"github.com/dep2p/go-sptransport/internal/core/peer"
	itf "github.com/dep2p/go-sptransport/pkg/interfaces/transport"
	"github.com/dep2p/go-sptransport/pkg/lib/aio"
	"github.com/dep2p/go-sptransport/pkg/types"
)

// ReportedError 一次 ReportError 调用
type ReportedError struct {
	EndpointID string
	Errno      string
}

// MockSocket 模拟 transport.Socket 接口实现
type MockSocket struct {
	// 基本属性
	IDValue   string
	TypeValue types.SocketType
	Ctx       *aio.Context
	Opts      types.EndpointOptions
	Stats     *metrics.Stats

	// IntOpts SOL_SOCKET 级整型选项
	IntOpts map[int]int

	// 可覆盖的方法
	AddPipeFunc   func(p itf.Pipe) error
	IsPeerFunc    func(st types.SocketType) bool
	GetOptionFunc func(level types.OptionLevel, option int, buf []byte) (int, error)
	FeedFunc      func(ev aio.Event)

	// 调用记录
	mu           sync.Mutex
	events       []aio.Event
	pipes        []itf.Pipe
	removedPipes []itf.Pipe
	errors       []ReportedError
}

var _ itf.Socket = (*MockSocket)(nil)

// NewMockSocket 创建带有默认值的 MockSocket
func NewMockSocket(st types.SocketType) *MockSocket {
	return &MockSocket{
		IDValue:   "mock-socket",
		TypeValue: st,
		Ctx:       aio.NewContext(),
		Opts:      types.DefaultEndpointOptions(),
		Stats:     metrics.NewStats("mock-socket"),
		IntOpts: map[int]int{
			types.OptLinger:          1000,
			types.OptReconnectIvl:    100,
			types.OptReconnectIvlMax: 0,
			types.OptRcvMaxSize:      1024 * 1024,
			types.OptProtocol:        int(st),
		},
	}
}

// Feed 记录事件
func (m *MockSocket) Feed(ev aio.Event) {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()

	if m.FeedFunc != nil {
		m.FeedFunc(ev)
	}
}

// ID 返回套接字 ID
func (m *MockSocket) ID() string { return m.IDValue }

// Type 返回套接字类型
func (m *MockSocket) Type() types.SocketType { return m.TypeValue }

// Context 返回执行上下文
func (m *MockSocket) Context() *aio.Context { return m.Ctx }

// EndpointOptions 返回端点选项
func (m *MockSocket) EndpointOptions() types.EndpointOptions { return m.Opts }

// IsPeer 默认使用兼容性表
func (m *MockSocket) IsPeer(st types.SocketType) bool {
	if m.IsPeerFunc != nil {
		return m.IsPeerFunc(st)
	}
	return peer.Accepts(m.TypeValue, st)
}

// GetOption 默认只支持 IntOpts 中的套接字级选项
func (m *MockSocket) GetOption(level types.OptionLevel, option int, buf []byte) (int, error) {
	if m.GetOptionFunc != nil {
		return m.GetOptionFunc(level, option, buf)
	}
	if level != types.LevelSocket {
		return 0, itf.ErrOptionNotFound
	}
	v, ok := m.IntOpts[option]
	if !ok {
		return 0, itf.ErrOptionNotFound
	}
	if len(buf) != optset.IntSize {
		return 0, itf.ErrOptionSize
	}
	return copy(buf, optset.EncodeInt(v)), nil
}

// AddPipe 记录管道
func (m *MockSocket) AddPipe(p itf.Pipe) error {
	if m.AddPipeFunc != nil {
		if err := m.AddPipeFunc(p); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.pipes = append(m.pipes, p)
	m.mu.Unlock()
	return nil
}

// RemovePipe 记录注销
func (m *MockSocket) RemovePipe(p itf.Pipe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removedPipes = append(m.removedPipes, p)
}

// ReportError 记录错误报告
func (m *MockSocket) ReportError(ep itf.Endpoint, errno string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, ReportedError{EndpointID: ep.ID(), Errno: errno})
}

// IncrementStat 转发到 Stats
func (m *MockSocket) IncrementStat(name types.Stat, delta int64) error {
	return m.Stats.Increment(name, delta)
}

// Events 返回收到的事件副本
func (m *MockSocket) Events() []aio.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]aio.Event(nil), m.events...)
}

// EventsOf 返回来自 src、类型为 typ 的事件数量
func (m *MockSocket) EventsOf(src any, typ aio.EventType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, ev := range m.events {
		if ev.Src == src && ev.Type == typ {
			n++
		}
	}
	return n
}

// ResetEvents 清空事件记录
func (m *MockSocket) ResetEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

// Pipes 返回已注册的管道
func (m *MockSocket) Pipes() []itf.Pipe {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]itf.Pipe(nil), m.pipes...)
}

// RemovedPipes 返回已注销的管道
func (m *MockSocket) RemovedPipes() []itf.Pipe {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]itf.Pipe(nil), m.removedPipes...)
}

// Errors 返回错误报告记录
func (m *MockSocket) Errors() []ReportedError {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ReportedError(nil), m.errors...)
}
