package tcp_test

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-sptransport/internal/core/socket"
	"github.com/dep2p/go-sptransport/internal/core/transport"
	"github.com/dep2p/go-sptransport/internal/core/transport/tcp"
	"github.com/dep2p/go-sptransport/pkg/types"
)

// ============================================================================
//                              测试辅助
// ============================================================================

type env struct {
	tr  *tcp.Transport
	reg *transport.Registry
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		tr:  tcp.New(tcp.Config{DialTimeout: time.Second}),
		reg: transport.NewRegistry(),
	}
	require.NoError(t, e.reg.Register(e.tr.Descriptor()))
	return e
}

func (e *env) socket(t *testing.T, st types.SocketType) *socket.Socket {
	t.Helper()
	cfg := socket.DefaultConfig()
	cfg.ReconnectIvl = 20 * time.Millisecond
	s, err := socket.New(st, e.reg, socket.WithConfig(cfg))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Close(ctx)
	})
	return s
}

// bind 绑定随机端口并返回实际地址
func (e *env) bind(t *testing.T, s *socket.Socket) string {
	t.Helper()
	id, err := s.Bind("tcp://127.0.0.1:0")
	require.NoError(t, err)
	a, ok := e.tr.BoundAddr(id)
	require.True(t, ok)
	return a.String()
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// freePort 返回一个当前没有监听的端口
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

// ============================================================================
//                              测试用例
// ============================================================================

func TestDescriptor(t *testing.T) {
	d := tcp.New(tcp.DefaultConfig()).Descriptor()
	require.NoError(t, d.Validate())
	assert.Equal(t, "tcp", d.Name)
	assert.Equal(t, types.TransportTCP, d.ID)
	require.NotNil(t, d.OptSet)
}

func TestPushPull(t *testing.T) {
	e := newEnv(t)
	pull := e.socket(t, types.SocketPull)
	push := e.socket(t, types.SocketPush)

	addr := e.bind(t, pull)
	_, err := push.Connect("tcp://" + addr)
	require.NoError(t, err)

	ctx := testContext(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, push.SendContext(ctx, types.NewMessage([]byte("msg-"+strconv.Itoa(i)))))
	}
	for i := 0; i < 5; i++ {
		msg, err := pull.RecvContext(ctx)
		require.NoError(t, err)
		assert.Equal(t, "msg-"+strconv.Itoa(i), string(msg.Body))
	}

	assert.Equal(t, int64(1), push.Stats().Get(types.StatEstablishedConnections))
	assert.Equal(t, int64(1), pull.Stats().Get(types.StatAcceptedConnections))
	assert.Equal(t, int64(5), pull.Stats().Get(types.StatMessagesReceived))
	t.Log("✅ TCP PUSH/PULL 按序送达")
}

func TestPairBothDirections(t *testing.T) {
	e := newEnv(t)
	a := e.socket(t, types.SocketPair)
	b := e.socket(t, types.SocketPair)

	addr := e.bind(t, a)
	_, err := b.Connect("tcp://" + addr)
	require.NoError(t, err)

	ctx := testContext(t)
	require.NoError(t, b.SendContext(ctx, types.NewMessage([]byte("ping"))))
	msg, err := a.RecvContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(msg.Body))

	require.NoError(t, a.SendContext(ctx, types.NewMessage([]byte("pong"))))
	msg, err = b.RecvContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(msg.Body))
}

func TestRawPeerHandshake(t *testing.T) {
	e := newEnv(t)
	pull := e.socket(t, types.SocketPull)
	addr := e.bind(t, pull)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte{0, 'S', 'P', 0, 0, byte(types.SocketPush), 0, 0})
	require.NoError(t, err)

	hdr := make([]byte, 8)
	_, err = io.ReadFull(conn, hdr)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 'S', 'P', 0, 0, byte(types.SocketPull), 0, 0}, hdr)

	frame := make([]byte, 8, 13)
	binary.BigEndian.PutUint64(frame, 5)
	frame = append(frame, "hello"...)
	_, err = conn.Write(frame)
	require.NoError(t, err)

	msg, err := pull.RecvContext(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(msg.Body))
	t.Log("✅ 与裸连接对端完成握手与收帧")
}

func TestPeerMismatch(t *testing.T) {
	e := newEnv(t)
	pub := e.socket(t, types.SocketPub)
	push := e.socket(t, types.SocketPush)

	addr := e.bind(t, pub)
	_, err := push.Connect("tcp://" + addr)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		eps := push.Endpoints()
		return len(eps) == 1 && eps[0].Errno != ""
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, push.Pipes())
	assert.Equal(t, 0, pub.Pipes())
	assert.Equal(t, int64(1), push.Stats().Get(types.StatCurrentEPErrors))

	// 握手阶段失败计入 DROPPED，不计入 BROKEN
	require.Eventually(t, func() bool {
		return push.Stats().Get(types.StatDroppedConnections) >= 1 &&
			pub.Stats().Get(types.StatDroppedConnections) >= 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, push.Stats().Get(types.StatBrokenConnections))
	assert.Zero(t, pub.Stats().Get(types.StatBrokenConnections))
	t.Log("✅ 不兼容的套接字类型握手后断开")
}

func TestReconnect(t *testing.T) {
	e := newEnv(t)
	push := e.socket(t, types.SocketPush)
	port := freePort(t)
	addr := "127.0.0.1:" + strconv.Itoa(port)

	_, err := push.Connect("tcp://" + addr)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return push.Stats().Get(types.StatConnectErrors) >= 1
	}, 2*time.Second, 5*time.Millisecond)

	pull := e.socket(t, types.SocketPull)
	_, err = pull.Bind("tcp://" + addr)
	require.NoError(t, err)

	ctx := testContext(t)
	require.NoError(t, push.SendContext(ctx, types.NewMessage([]byte("late"))))
	msg, err := pull.RecvContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "late", string(msg.Body))

	// 连接成功后错误状态被清除
	require.Eventually(t, func() bool {
		return push.Stats().Get(types.StatCurrentEPErrors) == 0
	}, time.Second, 5*time.Millisecond)
	t.Log("✅ 连接失败后按间隔重连")
}

func TestReconnectAfterPeerRestart(t *testing.T) {
	e := newEnv(t)
	push := e.socket(t, types.SocketPush)
	first := e.socket(t, types.SocketPull)

	id, err := first.Bind("tcp://127.0.0.1:0")
	require.NoError(t, err)
	a, _ := e.tr.BoundAddr(id)
	addr := a.String()

	_, err = push.Connect("tcp://" + addr)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return push.Pipes() == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, first.Shutdown(id))
	require.Eventually(t, func() bool {
		return push.Stats().Get(types.StatBrokenConnections) == 1
	}, 2*time.Second, 5*time.Millisecond)

	second := e.socket(t, types.SocketPull)
	_, err = second.Bind("tcp://" + addr)
	require.NoError(t, err)

	ctx := testContext(t)
	require.NoError(t, push.SendContext(ctx, types.NewMessage([]byte("back"))))
	msg, err := second.RecvContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "back", string(msg.Body))
}

func TestRcvMaxSize(t *testing.T) {
	e := newEnv(t)
	pull := e.socket(t, types.SocketPull)
	push := e.socket(t, types.SocketPush)
	require.NoError(t, pull.SetIntOption(types.LevelSocket, types.OptRcvMaxSize, 4))

	addr := e.bind(t, pull)
	_, err := push.Connect("tcp://" + addr)
	require.NoError(t, err)

	ctx := testContext(t)
	require.NoError(t, push.SendContext(ctx, types.NewMessage([]byte("too large"))))

	require.Eventually(t, func() bool {
		return pull.Stats().Get(types.StatBrokenConnections) >= 1
	}, 2*time.Second, 5*time.Millisecond)
	_, err = pull.Recv()
	assert.ErrorIs(t, err, socket.ErrAgain)
	t.Log("✅ 超过 RCVMAXSIZE 的消息导致断开")
}

func TestBind_AddrInUse(t *testing.T) {
	e := newEnv(t)
	a := e.socket(t, types.SocketPull)
	b := e.socket(t, types.SocketPull)

	addr := e.bind(t, a)
	_, err := b.Bind("tcp://" + addr)
	require.Error(t, err)
	assert.Equal(t, int64(1), b.Stats().Get(types.StatBindErrors))
	assert.Empty(t, b.Endpoints())
}

func TestConnect_InvalidAddress(t *testing.T) {
	e := newEnv(t)
	s := e.socket(t, types.SocketPush)

	_, err := s.Connect("tcp://*:5555")
	assert.ErrorIs(t, err, tcp.ErrInvalidAddress)
	_, err = s.Bind("tcp://nohost")
	assert.ErrorIs(t, err, tcp.ErrInvalidAddress)
}

func TestNoDelayOption(t *testing.T) {
	e := newEnv(t)
	s := e.socket(t, types.SocketPush)
	level := types.TransportLevel(types.TransportTCP)

	v, err := s.GetIntOption(level, types.OptTCPNoDelay)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	require.NoError(t, s.SetIntOption(level, types.OptTCPNoDelay, 1))
	v, err = s.GetIntOption(level, types.OptTCPNoDelay)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	t.Log("✅ TCP_NODELAY 传输级选项")
}

func TestShutdown_ReleasesListener(t *testing.T) {
	e := newEnv(t)
	s := e.socket(t, types.SocketPull)

	id, err := s.Bind("tcp://127.0.0.1:0")
	require.NoError(t, err)
	a, ok := e.tr.BoundAddr(id)
	require.True(t, ok)

	require.NoError(t, s.Shutdown(id))
	require.Eventually(t, func() bool { return len(s.Endpoints()) == 0 }, 2*time.Second, 5*time.Millisecond)
	_, ok = e.tr.BoundAddr(id)
	assert.False(t, ok)

	ln, err := net.Listen("tcp", a.String())
	require.NoError(t, err, "端口应已释放")
	_ = ln.Close()
}
