package pipe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-sptransport/internal/core/endpoint"
	itf "github.com/dep2p/go-sptransport/pkg/interfaces/transport"
	"github.com/dep2p/go-sptransport/pkg/types"
	"github.com/dep2p/go-sptransport/tests/mocks"
)

// ============================================================================
//                              测试辅助
// ============================================================================

type fixture struct {
	sock *mocks.MockSocket
	ep   *endpoint.Endpoint
	eh   *mocks.MockEndpointHandler
}

// newFixture 创建一个运行中的 connect 端点
func newFixture(t *testing.T, st types.SocketType) *fixture {
	t.Helper()
	f := &fixture{
		sock: mocks.NewMockSocket(st),
		eh:   &mocks.MockEndpointHandler{},
	}
	desc := &itf.Descriptor{
		Name: "fake",
		ID:   -10,
		Bind: func(itf.Endpoint) error { return errors.New("unused") },
		Connect: func(ep itf.Endpoint) error {
			ep.Setup(f.eh)
			return nil
		},
	}
	f.sock.Ctx.Do(func() {
		var err error
		f.ep, err = endpoint.New(f.sock, desc, "peer:1", false)
		require.NoError(t, err)
		require.NoError(t, f.ep.Start())
	})
	return f
}

// startedPipe 创建并启动管道，清空启动事件
func (f *fixture) startedPipe(t *testing.T, h itf.PipeHandler) *Pipe {
	t.Helper()
	p := New(f.ep, h)
	f.sock.Ctx.Do(func() {
		require.NoError(t, p.Start())
	})
	f.sock.ResetEvents()
	return p
}

func (f *fixture) do(fn func()) {
	f.sock.Ctx.Do(fn)
}

// ============================================================================
//                              启动
// ============================================================================

func TestPipe_Start(t *testing.T) {
	f := newFixture(t, types.SocketPair)
	p := New(f.ep, &mocks.MockPipeHandler{})
	assert.Equal(t, StateInit, p.State())
	assert.Equal(t, DirDeactivated, p.OutState())

	f.do(func() {
		require.NoError(t, p.Start())
	})

	assert.Equal(t, StateActive, p.State())
	assert.Equal(t, DirReady, p.OutState())
	assert.Equal(t, DirReleased, p.InState())
	assert.Len(t, f.sock.Pipes(), 1)
	assert.Equal(t, 1, f.sock.EventsOf(p, itf.EventPipeOut), "启动后发送方向立即就绪")
	assert.Equal(t, 0, f.sock.EventsOf(p, itf.EventPipeIn))

	f.do(func() {
		assert.ErrorIs(t, p.Start(), itf.ErrNotStartable)
	})

	t.Log("✅ 管道启动后注册并发出 OUT 事件")
}

func TestPipe_StartRejected(t *testing.T) {
	f := newFixture(t, types.SocketPair)
	f.sock.AddPipeFunc = func(itf.Pipe) error { return itf.ErrPipeRejected }

	p := New(f.ep, &mocks.MockPipeHandler{})
	f.do(func() {
		assert.ErrorIs(t, p.Start(), itf.ErrPipeRejected)
	})
	assert.Equal(t, StateFailed, p.State())
	assert.Empty(t, f.sock.Events())

	// 失败的管道可以直接停止和释放
	f.do(p.Stop)
	assert.Empty(t, f.sock.RemovedPipes())
	p.Term()
	assert.Equal(t, StateTerminated, p.State())
}

func TestPipe_StartAfterEndpointStopping(t *testing.T) {
	f := newFixture(t, types.SocketPush)
	f.do(f.ep.Stop)

	p := New(f.ep, &mocks.MockPipeHandler{})
	f.do(func() {
		assert.ErrorIs(t, p.Start(), itf.ErrNotStartable)
	})
	assert.Empty(t, f.sock.Pipes())
}

// ============================================================================
//                              发送背压
// ============================================================================

func TestPipe_SendAsyncRelease(t *testing.T) {
	f := newFixture(t, types.SocketPush)
	h := &mocks.MockPipeHandler{}
	p := f.startedPipe(t, h)

	f.do(func() {
		flags, err := p.Send(types.NewMessage([]byte("a")))
		require.NoError(t, err)
		assert.True(t, flags.Released())
	})
	assert.Equal(t, DirReleased, p.OutState())
	assert.Empty(t, f.sock.Events(), "释放期间不应有 OUT 事件")

	// 释放期间再次发送属于违例
	assert.Panics(t, func() {
		_, _ = p.Send(types.NewMessage([]byte("b")))
	})

	f.do(p.Sent)
	assert.Equal(t, DirReady, p.OutState())
	assert.Equal(t, 1, f.sock.EventsOf(p, itf.EventPipeOut))

	t.Log("✅ 异步发送返回 RELEASE，Sent 后恢复就绪并发出事件")
}

func TestPipe_SendSynchronous(t *testing.T) {
	f := newFixture(t, types.SocketPush)
	h := &mocks.MockPipeHandler{}
	p := f.startedPipe(t, h)
	h.SendFunc = func(*types.Message) (types.Flags, error) {
		p.Sent()
		return 0, nil
	}

	f.do(func() {
		for i := 0; i < 3; i++ {
			flags, err := p.Send(types.NewMessage([]byte{byte(i)}))
			require.NoError(t, err)
			assert.False(t, flags.Released())
		}
	})
	assert.Equal(t, DirReady, p.OutState())
	assert.Empty(t, f.sock.Events(), "同步完成不发出事件")

	// 顺序保持
	require.Len(t, h.Sent, 3)
	for i, m := range h.Sent {
		assert.Equal(t, []byte{byte(i)}, m.Body)
	}
}

func TestPipe_Violations(t *testing.T) {
	t.Run("未释放就调用 Sent", func(t *testing.T) {
		f := newFixture(t, types.SocketPush)
		p := f.startedPipe(t, &mocks.MockPipeHandler{})
		assert.Panics(t, p.Sent)
	})

	t.Run("接收方向就绪时重复 Received", func(t *testing.T) {
		f := newFixture(t, types.SocketPull)
		p := f.startedPipe(t, &mocks.MockPipeHandler{})
		f.do(p.Received)
		assert.Panics(t, p.Received)
	})

	t.Run("同步完成又声明释放", func(t *testing.T) {
		f := newFixture(t, types.SocketPush)
		h := &mocks.MockPipeHandler{}
		p := f.startedPipe(t, h)
		h.SendFunc = func(*types.Message) (types.Flags, error) {
			p.Sent()
			return types.FlagRelease, nil
		}
		assert.Panics(t, func() {
			_, _ = p.Send(types.NewMessage(nil))
		})
	})

	t.Run("接收方向未就绪时接收", func(t *testing.T) {
		f := newFixture(t, types.SocketPull)
		p := f.startedPipe(t, &mocks.MockPipeHandler{})
		assert.Panics(t, func() {
			_, _, _ = p.Recv()
		})
	})

	t.Run("未启动时发送", func(t *testing.T) {
		f := newFixture(t, types.SocketPush)
		p := New(f.ep, &mocks.MockPipeHandler{})
		assert.Panics(t, func() {
			_, _ = p.Send(types.NewMessage(nil))
		})
	})

	t.Run("释放未停止的管道", func(t *testing.T) {
		f := newFixture(t, types.SocketPush)
		p := f.startedPipe(t, &mocks.MockPipeHandler{})
		assert.Panics(t, p.Term)
	})
}

func TestPipe_SendError(t *testing.T) {
	f := newFixture(t, types.SocketPush)
	h := &mocks.MockPipeHandler{}
	p := f.startedPipe(t, h)
	boom := errors.New("boom")
	h.SendFunc = func(*types.Message) (types.Flags, error) { return 0, boom }

	f.do(func() {
		flags, err := p.Send(types.NewMessage(nil))
		assert.ErrorIs(t, err, boom)
		assert.True(t, flags.Released())
	})
	assert.Equal(t, DirReleased, p.OutState())
}

// ============================================================================
//                              接收
// ============================================================================

func TestPipe_Recv(t *testing.T) {
	f := newFixture(t, types.SocketPull)
	h := &mocks.MockPipeHandler{}
	p := f.startedPipe(t, h)

	// 处理器收到第一条消息后重新就绪
	f.do(p.Received)
	assert.Equal(t, 1, f.sock.EventsOf(p, itf.EventPipeIn))
	assert.Equal(t, DirReady, p.InState())

	h.RecvFunc = func() (*types.Message, types.Flags, error) {
		return &types.Message{Header: []byte{1}, Body: []byte("x")}, types.FlagParsed, nil
	}
	f.do(func() {
		msg, flags, err := p.Recv()
		require.NoError(t, err)
		assert.Equal(t, []byte("x"), msg.Body)
		assert.True(t, flags.Parsed())
		assert.True(t, flags.Released(), "未同步完成下一条时释放接收方向")
	})
	assert.Equal(t, DirReleased, p.InState())
}

func TestPipe_RecvSynchronous(t *testing.T) {
	f := newFixture(t, types.SocketPull)
	h := &mocks.MockPipeHandler{Inbox: []*types.Message{
		types.NewMessage([]byte("1")),
		types.NewMessage([]byte("2")),
	}}
	p := f.startedPipe(t, h)
	f.do(p.Received)

	h.RecvFunc = func() (*types.Message, types.Flags, error) {
		m := h.Inbox[0]
		h.Inbox = h.Inbox[1:]
		if len(h.Inbox) > 0 {
			p.Received()
		}
		return m, 0, nil
	}

	f.do(func() {
		m, flags, err := p.Recv()
		require.NoError(t, err)
		assert.Equal(t, []byte("1"), m.Body)
		assert.False(t, flags.Released())

		m, flags, err = p.Recv()
		require.NoError(t, err)
		assert.Equal(t, []byte("2"), m.Body)
		assert.True(t, flags.Released())
	})
}

// ============================================================================
//                              停止
// ============================================================================

func TestPipe_Stop(t *testing.T) {
	f := newFixture(t, types.SocketPush)
	p := f.startedPipe(t, &mocks.MockPipeHandler{})

	f.do(func() {
		_, _ = p.Send(types.NewMessage(nil))
		// 已排队的 OUT 事件在停止后被丢弃
		p.Sent()
		p.Stop()
	})
	assert.Equal(t, StateStopped, p.State())
	assert.Equal(t, DirDeactivated, p.OutState())
	assert.Empty(t, f.sock.Events(), "停止后不应再投递事件")
	assert.Equal(t, []itf.Pipe{p}, f.sock.RemovedPipes())

	// 迟到的完成通知被忽略，重复停止为空操作
	f.do(func() {
		p.Sent()
		p.Received()
		p.Stop()
	})
	assert.Len(t, f.sock.RemovedPipes(), 1)
	assert.Empty(t, f.sock.Events())

	p.Term()
	p.Term()
	assert.Equal(t, StateTerminated, p.State())
}

func TestPipe_StopInsideSend(t *testing.T) {
	f := newFixture(t, types.SocketPush)
	h := &mocks.MockPipeHandler{}
	p := f.startedPipe(t, h)
	h.SendFunc = func(*types.Message) (types.Flags, error) {
		p.Stop()
		return 0, nil
	}

	f.do(func() {
		flags, err := p.Send(types.NewMessage(nil))
		require.NoError(t, err)
		assert.True(t, flags.Released())
	})
	assert.Equal(t, StateStopped, p.State())
	assert.Equal(t, DirDeactivated, p.OutState())
}

// ============================================================================
//                              选项与对端
// ============================================================================

func TestPipe_Options(t *testing.T) {
	f := newFixture(t, types.SocketPush)
	p := New(f.ep, &mocks.MockPipeHandler{})
	assert.Equal(t, f.ep.Options(), p.Options())

	buf := make([]byte, 4)
	n, err := p.GetOption(types.LevelSocket, types.OptSndPrio, buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = p.GetOption(types.LevelSocket, types.OptIPv4Only, buf[:2])
	assert.ErrorIs(t, err, itf.ErrOptionSize)
	_, err = p.GetOption(types.LevelSocket, types.OptRcvPrio, make([]byte, 8))
	assert.ErrorIs(t, err, itf.ErrOptionSize)

	// 其他选项转发给端点
	n, err = p.GetOption(types.LevelSocket, types.OptLinger, buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = p.GetOption(types.TransportLevel(types.TransportTCP), types.OptTCPNoDelay, buf)
	assert.ErrorIs(t, err, itf.ErrOptionNotFound)
}

func TestPipe_IsPeer(t *testing.T) {
	f := newFixture(t, types.SocketReq)
	p := New(f.ep, &mocks.MockPipeHandler{})
	assert.True(t, p.IsPeer(types.SocketRep))
	assert.False(t, p.IsPeer(types.SocketReq))
}

// ============================================================================
//                              完整场景
// ============================================================================

// TestScenario_ConnectSendRecvStop 端点 connect → 运行 → 管道收发 → 停止 → 销毁
func TestScenario_ConnectSendRecvStop(t *testing.T) {
	f := newFixture(t, types.SocketPair)
	h := &mocks.MockPipeHandler{Inbox: []*types.Message{types.NewMessage([]byte("pong"))}}
	p := New(f.ep, h)

	f.do(func() {
		require.NoError(t, p.Start())
	})
	assert.Equal(t, 1, f.sock.EventsOf(p, itf.EventPipeOut))

	// 发送：Ready → Released → Sent → Ready
	f.do(func() {
		flags, err := p.Send(types.NewMessage([]byte("ping")))
		require.NoError(t, err)
		assert.True(t, flags.Released())
	})
	f.do(p.Sent)
	assert.Equal(t, DirReady, p.OutState())
	assert.Equal(t, 2, f.sock.EventsOf(p, itf.EventPipeOut))

	// 接收
	f.do(p.Received)
	assert.Equal(t, 1, f.sock.EventsOf(p, itf.EventPipeIn))
	f.do(func() {
		msg, _, err := p.Recv()
		require.NoError(t, err)
		assert.Equal(t, []byte("pong"), msg.Body)
	})

	// 停止管道与端点，然后销毁
	f.eh.StopFunc = f.ep.Stopped
	f.do(func() {
		p.Stop()
		f.ep.Stop()
	})
	before := len(f.sock.Events())
	f.do(func() {
		p.Term()
		f.ep.Destroy()
	})

	assert.Equal(t, 1, f.sock.EventsOf(f.ep, itf.EventEndpointStopped))
	assert.Equal(t, 1, f.eh.StopCalls)
	assert.Equal(t, 1, f.eh.DestroyCalls)
	assert.Len(t, f.sock.Events(), before, "终止后不再投递事件")

	// 终止后的迟到通知不产生事件
	f.do(func() {
		p.Sent()
		p.Received()
	})
	assert.Len(t, f.sock.Events(), before)

	t.Log("✅ 完整场景：每个对象恰好一次停止通知，终止后无事件")
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "released", DirReleased.String())
	assert.Equal(t, "dir(9)", DirState(9).String())
}
