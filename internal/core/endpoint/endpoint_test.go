package endpoint

import (
	"context"
	"errors"
	"testing"

	"github.com/bassosimone/errclass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	itf "github.com/dep2p/go-sptransport/pkg/interfaces/transport"
	"github.com/dep2p/go-sptransport/pkg/types"
	"github.com/dep2p/go-sptransport/tests/mocks"
)

// fakeDescriptor 创建一个在 Bind/Connect 中安装 h 的描述符
func fakeDescriptor(h itf.EndpointHandler, bindErr error) *itf.Descriptor {
	setup := func(ep itf.Endpoint) error {
		if bindErr != nil {
			return bindErr
		}
		ep.Setup(h)
		return nil
	}
	return &itf.Descriptor{Name: "fake", ID: -10, Bind: setup, Connect: setup}
}

// newRunning 在套接字上下文内创建并启动端点
func newRunning(t *testing.T, sock *mocks.MockSocket, h itf.EndpointHandler) *Endpoint {
	t.Helper()
	var ep *Endpoint
	sock.Ctx.Do(func() {
		var err error
		ep, err = New(sock, fakeDescriptor(h, nil), "a:1", true)
		require.NoError(t, err)
		require.NoError(t, ep.Start())
	})
	return ep
}

// ============================================================================
//                              生命周期
// ============================================================================

func TestEndpoint_Lifecycle(t *testing.T) {
	sock := mocks.NewMockSocket(types.SocketPush)
	h := &mocks.MockEndpointHandler{}
	ep := newRunning(t, sock, h)

	assert.Equal(t, "a:1", ep.Addr())
	assert.Equal(t, "fake://a:1", ep.URL())
	assert.True(t, ep.IsBind())
	assert.Same(t, h, ep.Handler())
	assert.Equal(t, StateRunning, ep.State())

	sock.Ctx.Do(ep.Stop)
	assert.Equal(t, StateStopping, ep.State())
	assert.Equal(t, 1, h.StopCalls)

	// 重复 Stop 为空操作
	sock.Ctx.Do(ep.Stop)
	assert.Equal(t, 1, h.StopCalls)

	sock.Ctx.Do(ep.Stopped)
	assert.Equal(t, StateStopped, ep.State())
	assert.Equal(t, 1, sock.EventsOf(ep, itf.EventEndpointStopped))

	sock.Ctx.Do(ep.Destroy)
	assert.Equal(t, StateDestroyed, ep.State())
	assert.Equal(t, 1, h.DestroyCalls)

	t.Log("✅ 端点生命周期 created → running → stopping → stopped → destroyed")
}

func TestEndpoint_SynchronousStop(t *testing.T) {
	sock := mocks.NewMockSocket(types.SocketPull)
	h := &mocks.MockEndpointHandler{}
	ep := newRunning(t, sock, h)
	h.StopFunc = ep.Stopped

	sock.Ctx.Do(ep.Stop)
	assert.Equal(t, StateStopped, ep.State())
	assert.Equal(t, 1, sock.EventsOf(ep, itf.EventEndpointStopped))
}

func TestEndpoint_SetupFailure(t *testing.T) {
	sock := mocks.NewMockSocket(types.SocketPush)
	h := &mocks.MockEndpointHandler{}
	bindErr := errors.New("address in use")

	sock.Ctx.Do(func() {
		ep, err := New(sock, fakeDescriptor(h, bindErr), "a:1", true)
		require.ErrorIs(t, err, bindErr)
		assert.Nil(t, ep.Handler())
		assert.ErrorIs(t, ep.Start(), itf.ErrNotStartable)

		// 未安装处理器的端点可以直接销毁
		ep.Destroy()
		assert.Equal(t, StateDestroyed, ep.State())
	})
	assert.Zero(t, h.DestroyCalls)
}

func TestEndpoint_Violations(t *testing.T) {
	sock := mocks.NewMockSocket(types.SocketPush)

	t.Run("成功返回但未安装处理器", func(t *testing.T) {
		d := &itf.Descriptor{
			Name:    "lazy",
			ID:      -11,
			Bind:    func(itf.Endpoint) error { return nil },
			Connect: func(itf.Endpoint) error { return nil },
		}
		assert.Panics(t, func() { _, _ = New(sock, d, "x", false) })
	})

	t.Run("重复安装处理器", func(t *testing.T) {
		h := &mocks.MockEndpointHandler{}
		d := &itf.Descriptor{
			Name: "twice",
			ID:   -12,
			Connect: func(ep itf.Endpoint) error {
				ep.Setup(h)
				ep.Setup(h)
				return nil
			},
			Bind: func(itf.Endpoint) error { return nil },
		}
		assert.Panics(t, func() { _, _ = New(sock, d, "x", false) })
	})

	t.Run("运行中销毁", func(t *testing.T) {
		ep := newRunning(t, sock, &mocks.MockEndpointHandler{})
		assert.Panics(t, ep.Destroy)
	})

	t.Run("未停止时确认停止", func(t *testing.T) {
		ep := newRunning(t, sock, &mocks.MockEndpointHandler{})
		assert.Panics(t, ep.Stopped)
	})
}

// ============================================================================
//                              选项与对端
// ============================================================================

func TestEndpoint_Options(t *testing.T) {
	sock := mocks.NewMockSocket(types.SocketPush)
	sock.Opts = types.EndpointOptions{SndPrio: 3, RcvPrio: 5, IPv4Only: false}
	ep := newRunning(t, sock, &mocks.MockEndpointHandler{})

	// 端点在创建时复制套接字选项
	sock.Opts.SndPrio = 1
	assert.Equal(t, types.EndpointOptions{SndPrio: 3, RcvPrio: 5}, ep.Options())

	v, err := ep.GetIntOption(types.LevelSocket, types.OptReconnectIvl)
	require.NoError(t, err)
	assert.Equal(t, 100, v)

	_, err = ep.GetIntOption(types.LevelSocket, 9999)
	assert.ErrorIs(t, err, itf.ErrOptionNotFound)

	// 其他传输的层级不可见
	_, err = ep.GetOption(types.TransportLevel(types.TransportTCP), types.OptTCPNoDelay, make([]byte, 4))
	assert.ErrorIs(t, err, itf.ErrOptionNotFound)

	// 本传输层级转发给套接字
	var gotLevel types.OptionLevel
	sock.GetOptionFunc = func(level types.OptionLevel, option int, buf []byte) (int, error) {
		gotLevel = level
		return 0, itf.ErrOptionNotFound
	}
	_, _ = ep.GetOption(types.TransportLevel(-10), 1, make([]byte, 4))
	assert.Equal(t, types.OptionLevel(-10), gotLevel)
}

func TestEndpoint_IsPeer(t *testing.T) {
	push := mocks.NewMockSocket(types.SocketPush)
	pull := mocks.NewMockSocket(types.SocketPull)
	pub := mocks.NewMockSocket(types.SocketPub)

	a := newRunning(t, push, &mocks.MockEndpointHandler{})
	b := newRunning(t, pull, &mocks.MockEndpointHandler{})
	c := newRunning(t, pub, &mocks.MockEndpointHandler{})

	assert.True(t, a.IsPeer(types.SocketPull))
	assert.False(t, a.IsPeer(types.SocketPush))

	assert.True(t, a.IsPeerOf(b))
	assert.True(t, b.IsPeerOf(a))
	assert.False(t, a.IsPeerOf(c))
	assert.False(t, c.IsPeerOf(a))
}

func TestEndpoint_IsPeerOf_RequiresBothSides(t *testing.T) {
	push := mocks.NewMockSocket(types.SocketPush)
	pull := mocks.NewMockSocket(types.SocketPull)
	pull.IsPeerFunc = func(types.SocketType) bool { return false }

	a := newRunning(t, push, &mocks.MockEndpointHandler{})
	b := newRunning(t, pull, &mocks.MockEndpointHandler{})

	assert.True(t, a.IsPeer(types.SocketPull))
	assert.False(t, b.IsPeer(types.SocketPush))

	assert.False(t, a.IsPeerOf(b), "对端拒绝本端类型")
	assert.False(t, b.IsPeerOf(a))
	t.Log("✅ 兼容性需要双方各自接受")
}

// ============================================================================
//                              错误状态
// ============================================================================

func TestEndpoint_ErrorBookkeeping(t *testing.T) {
	sock := mocks.NewMockSocket(types.SocketPush)
	ep := newRunning(t, sock, &mocks.MockEndpointHandler{})

	sock.Ctx.Do(func() {
		ep.SetError(context.DeadlineExceeded)
	})
	assert.Equal(t, errclass.ETIMEDOUT, ep.Errno())
	assert.Equal(t, int64(1), sock.Stats.Get(types.StatCurrentEPErrors))

	// 相同分类的重复设置为空操作
	sock.Ctx.Do(func() {
		ep.SetError(context.DeadlineExceeded)
	})
	assert.Len(t, sock.Errors(), 1)

	// 切换到另一个错误：上报但不再计数
	sock.Ctx.Do(func() {
		ep.SetError(errors.New("something else"))
	})
	assert.Equal(t, errclass.EGENERIC, ep.Errno())
	assert.Equal(t, int64(1), sock.Stats.Get(types.StatCurrentEPErrors))
	assert.Len(t, sock.Errors(), 2)

	sock.Ctx.Do(ep.ClearError)
	assert.Empty(t, ep.Errno())
	assert.Equal(t, int64(0), sock.Stats.Get(types.StatCurrentEPErrors))

	// 无错误时清除为空操作
	sock.Ctx.Do(ep.ClearError)
	assert.Equal(t, []mocks.ReportedError{
		{EndpointID: ep.ID(), Errno: errclass.ETIMEDOUT},
		{EndpointID: ep.ID(), Errno: errclass.EGENERIC},
		{EndpointID: ep.ID(), Errno: ""},
	}, sock.Errors())

	t.Log("✅ 端点错误状态只在真实变化时计数和上报")
}

func TestEndpoint_SetNilErrorClears(t *testing.T) {
	sock := mocks.NewMockSocket(types.SocketPush)
	ep := newRunning(t, sock, &mocks.MockEndpointHandler{})

	sock.Ctx.Do(func() {
		ep.SetError(context.DeadlineExceeded)
		ep.SetError(nil)
	})
	assert.Empty(t, ep.Errno())
	assert.Equal(t, int64(0), sock.Stats.Get(types.StatCurrentEPErrors))
}

func TestEndpoint_IncrementStat(t *testing.T) {
	sock := mocks.NewMockSocket(types.SocketPush)
	ep := newRunning(t, sock, &mocks.MockEndpointHandler{})

	require.NoError(t, ep.IncrementStat(types.StatAcceptedConnections, 2))
	assert.Equal(t, int64(2), sock.Stats.Get(types.StatAcceptedConnections))
	assert.Error(t, ep.IncrementStat(types.StatAcceptedConnections, -1))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "stopping", StateStopping.String())
	assert.Equal(t, "state(42)", State(42).String())
}
