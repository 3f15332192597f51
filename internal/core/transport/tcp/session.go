package tcp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/bassosimone/errclass"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-sptransport/internal/core/pipe"
	itf "github.com/dep2p/go-sptransport/pkg/interfaces/transport"
	"github.com/dep2p/go-sptransport/pkg/lib/log"
	"github.com/dep2p/go-sptransport/pkg/types"
)

// owner 会话所属的端点处理器，回调都在端点上下文内执行
type owner interface {
	sessionStarted(s *session)
	sessionClosed(s *session)
}

// sessionParams 创建会话时从套接字读取的选项
type sessionParams struct {
	linger    time.Duration
	rcvMax    int
	handshake time.Duration
}

// readParams 读取会话选项，必须在端点上下文内调用
func readParams(ep itf.Endpoint, handshake time.Duration) sessionParams {
	p := sessionParams{rcvMax: -1, handshake: handshake}
	if v, err := ep.GetIntOption(types.LevelSocket, types.OptLinger); err == nil {
		p.linger = time.Duration(v) * time.Millisecond
	}
	if v, err := ep.GetIntOption(types.LevelSocket, types.OptRcvMaxSize); err == nil {
		p.rcvMax = v
	}
	return p
}

// ============================================================================
//                              session
// ============================================================================

// session 一条 TCP 连接
//
// 标注“上下文内”的字段只在端点上下文内访问。
type session struct {
	owner  owner
	ep     itf.Endpoint
	conn   net.Conn
	params sessionParams

	outq     chan *types.Message
	consumed chan struct{}
	quit     chan struct{}
	quitOnce sync.Once

	// 上下文内
	p       *pipe.Pipe
	inmsg   *types.Message
	started bool
	stopped bool
}

var _ itf.PipeHandler = (*session)(nil)

func newSession(o owner, ep itf.Endpoint, conn net.Conn, params sessionParams) *session {
	return &session{
		owner:    o,
		ep:       ep,
		conn:     conn,
		params:   params,
		outq:     make(chan *types.Message, 1),
		consumed: make(chan struct{}, 1),
		quit:     make(chan struct{}),
	}
}

func (s *session) post(fn func()) {
	s.ep.Context().Post(fn)
}

// run 握手并驱动读写，在独立 goroutine 中执行
func (s *session) run() error {
	defer s.conn.Close()

	if err := s.handshake(); err != nil {
		if !s.quitting() {
			s.post(func() { s.fail(err) })
		}
		return nil
	}
	s.post(s.start)

	g, gctx := errgroup.WithContext(context.Background())
	g.Go(func() error { return s.readLoop(gctx) })
	g.Go(func() error { return s.writeLoop(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		_ = s.conn.Close()
		return nil
	})

	err := g.Wait()
	if !s.quitting() {
		s.post(func() { s.fail(err) })
	}
	return nil
}

func (s *session) quitting() bool {
	select {
	case <-s.quit:
		return true
	default:
		return false
	}
}

// handshake 交换协议头部并检查对端类型
func (s *session) handshake() error {
	if s.params.handshake > 0 {
		_ = s.conn.SetDeadline(time.Now().Add(s.params.handshake))
		defer s.conn.SetDeadline(time.Time{})
	}

	local := s.ep.Socket().Type()
	var g errgroup.Group
	g.Go(func() error {
		_, err := s.conn.Write(encodeHeader(local))
		return err
	})

	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(s.conn, buf); err != nil {
		return err
	}
	if err := g.Wait(); err != nil {
		return err
	}

	remote, err := decodeHeader(buf)
	if err != nil {
		return err
	}
	if !s.ep.IsPeer(remote) {
		return fmt.Errorf("%w: local %s remote %s", itf.ErrPeerMismatch, local, remote)
	}
	return nil
}

func (s *session) readLoop(ctx context.Context) error {
	br := bufio.NewReader(s.conn)
	for {
		msg, err := readFrame(br, s.params.rcvMax)
		if err != nil {
			return err
		}
		s.post(func() { s.deliver(msg) })

		select {
		case <-s.consumed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *session) writeLoop(ctx context.Context) error {
	bw := bufio.NewWriter(s.conn)
	for {
		select {
		case msg := <-s.outq:
			if err := writeFrame(bw, msg); err != nil {
				return err
			}
			s.post(s.sent)
		case <-s.quit:
			s.linger(bw)
			return errClosing
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// linger 在 LINGER 时间内发出尚未写出的消息
func (s *session) linger(bw *bufio.Writer) {
	select {
	case msg := <-s.outq:
		if s.params.linger == 0 {
			logger.Debug("丢弃未发送消息", "endpoint", log.ShortID(s.ep.ID()))
			return
		}
		if s.params.linger > 0 {
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.params.linger))
		}
		if err := writeFrame(bw, msg); err != nil {
			logger.Debug("linger 期间发送失败", "endpoint", log.ShortID(s.ep.ID()), "errno", errclass.New(err))
		}
	default:
	}
}

// ============================================================================
//                              上下文内
// ============================================================================

// start 握手成功后启动管道
func (s *session) start() {
	if s.stopped {
		return
	}
	s.p = pipe.New(s.ep, s)
	if err := s.p.Start(); err != nil {
		s.p.Term()
		s.p = nil
		s.fail(err)
		return
	}
	s.started = true
	s.incr(types.StatCurrentConnections, 1)
	s.ep.ClearError()
	s.owner.sessionStarted(s)
	logger.Debug("连接已就绪",
		"endpoint", log.ShortID(s.ep.ID()),
		"pipe", log.ShortID(s.p.ID()),
		"remote", s.conn.RemoteAddr())
}

func (s *session) deliver(msg *types.Message) {
	if !s.started || s.stopped {
		return
	}
	s.inmsg = msg
	s.p.Received()
}

func (s *session) sent() {
	if !s.started || s.stopped {
		return
	}
	s.p.Sent()
}

// stop 本端关闭会话
func (s *session) stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	if s.p != nil {
		s.p.Stop()
		s.p.Term()
	}
	if s.started {
		s.incr(types.StatCurrentConnections, -1)
	}
	s.quitOnce.Do(func() { close(s.quit) })
	if !s.started {
		_ = s.conn.Close()
	}
}

// fail 连接出错或被对端关闭
func (s *session) fail(err error) {
	if s.stopped {
		return
	}
	wasStarted := s.started
	s.stop()
	if wasStarted {
		s.incr(types.StatBrokenConnections, 1)
	} else {
		s.incr(types.StatDroppedConnections, 1)
	}
	logger.Warn("连接断开",
		"endpoint", log.ShortID(s.ep.ID()),
		"remote", s.conn.RemoteAddr(),
		"errno", errclass.New(err),
		"error", err)
	s.ep.SetError(err)
	s.owner.sessionClosed(s)
}

// Send 实现 transport.PipeHandler
//
// 消息交给写 goroutine，写出后通过 Post 通知 Sent。
func (s *session) Send(msg *types.Message) (types.Flags, error) {
	s.outq <- msg
	return 0, nil
}

// Recv 实现 transport.PipeHandler
func (s *session) Recv() (*types.Message, types.Flags, error) {
	msg := s.inmsg
	s.inmsg = nil
	select {
	case s.consumed <- struct{}{}:
	default:
	}
	return msg, 0, nil
}

func (s *session) incr(name types.Stat, delta int64) {
	if err := s.ep.IncrementStat(name, delta); err != nil {
		logger.Warn("统计更新失败", "stat", name, "error", err)
	}
}
