package tcp

import (
	"errors"
	"net"
	"time"

	"github.com/bassosimone/errclass"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	itf "github.com/dep2p/go-sptransport/pkg/interfaces/transport"
	"github.com/dep2p/go-sptransport/pkg/lib/log"
	"github.com/dep2p/go-sptransport/pkg/types"
)

// acceptBackoff Accept 出错后的等待时间
const acceptBackoff = 100 * time.Millisecond

// binder 绑定端点处理器
type binder struct {
	t     *Transport
	ep    itf.Endpoint
	ln    net.Listener
	group errgroup.Group

	// 上下文内
	sessions map[*session]struct{}
	stopping bool
}

// bind 同步监听，监听失败直接返回错误
func (t *Transport) bind(ep itf.Endpoint) error {
	addr, err := ParseAddress(ep.Addr(), true)
	if err != nil {
		return err
	}

	ln, err := net.Listen(addr.Network(ep.Options().IPv4Only), addr.HostPort())
	if err != nil {
		if ierr := ep.IncrementStat(types.StatBindErrors, 1); ierr != nil {
			logger.Warn("统计更新失败", "error", ierr)
		}
		return err
	}

	b := &binder{
		t:        t,
		ep:       ep,
		ln:       ln,
		sessions: make(map[*session]struct{}),
	}
	ep.Setup(b)
	t.track(ep.ID(), ln.Addr())
	b.group.Go(b.acceptLoop)

	logger.Info("开始监听", "endpoint", log.ShortID(ep.ID()), "addr", ln.Addr())
	return nil
}

func (b *binder) acceptLoop() error {
	for {
		conn, err := b.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			b.ep.Context().Post(func() { b.acceptFailed(err) })
			time.Sleep(acceptBackoff)
			continue
		}
		b.ep.Context().Post(func() { b.accepted(conn) })
	}
}

func (b *binder) acceptFailed(err error) {
	if b.stopping {
		return
	}
	if ierr := b.ep.IncrementStat(types.StatAcceptErrors, 1); ierr != nil {
		logger.Warn("统计更新失败", "error", ierr)
	}
	logger.Warn("接受连接失败", "endpoint", log.ShortID(b.ep.ID()), "errno", errclass.New(err))
	b.ep.SetError(err)
}

func (b *binder) accepted(conn net.Conn) {
	if b.stopping {
		_ = conn.Close()
		return
	}
	b.t.tune(b.ep, conn)
	if ierr := b.ep.IncrementStat(types.StatAcceptedConnections, 1); ierr != nil {
		logger.Warn("统计更新失败", "error", ierr)
	}

	s := newSession(b, b.ep, conn, readParams(b.ep, b.t.cfg.DialTimeout))
	b.sessions[s] = struct{}{}
	b.group.Go(s.run)
	logger.Debug("接受连接", "endpoint", log.ShortID(b.ep.ID()), "remote", conn.RemoteAddr())
}

func (b *binder) sessionStarted(*session) {}

func (b *binder) sessionClosed(s *session) {
	delete(b.sessions, s)
}

// Stop 实现 transport.EndpointHandler
//
// 关闭监听与所有连接，goroutine 全部退出后确认停止。
func (b *binder) Stop() {
	b.stopping = true
	lnErr := b.ln.Close()
	for s := range b.sessions {
		s.stop()
	}
	b.sessions = nil

	go func() {
		if err := multierr.Combine(lnErr, b.group.Wait()); err != nil {
			logger.Debug("监听关闭出错", "endpoint", log.ShortID(b.ep.ID()), "error", err)
		}
		b.ep.Context().Post(b.ep.Stopped)
	}()
}

// Destroy 实现 transport.EndpointHandler
func (b *binder) Destroy() {
	b.t.untrack(b.ep.ID())
}
