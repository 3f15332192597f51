package tcp

import (
	"context"
	"net"
	"time"

	"github.com/bassosimone/errclass"
	"golang.org/x/sync/errgroup"

	itf "github.com/dep2p/go-sptransport/pkg/interfaces/transport"
	"github.com/dep2p/go-sptransport/pkg/lib/aio"
	"github.com/dep2p/go-sptransport/pkg/lib/log"
	"github.com/dep2p/go-sptransport/pkg/types"
)

// connector 连接端点处理器
//
// 除 group 外的字段只在端点上下文内访问。
type connector struct {
	t     *Transport
	ep    itf.Endpoint
	addr  *Address
	group errgroup.Group

	timer  *aio.Timer
	ivl    time.Duration
	ivlMax time.Duration
	next   time.Duration

	cancel   context.CancelFunc
	sess     *session
	stopping bool
}

var _ aio.Sink = (*connector)(nil)

// connect 立即开始拨号，失败后按重连间隔重试
func (t *Transport) connect(ep itf.Endpoint) error {
	addr, err := ParseAddress(ep.Addr(), false)
	if err != nil {
		return err
	}

	c := &connector{t: t, ep: ep, addr: addr}
	if v, err := ep.GetIntOption(types.LevelSocket, types.OptReconnectIvl); err == nil {
		c.ivl = time.Duration(v) * time.Millisecond
	}
	if v, err := ep.GetIntOption(types.LevelSocket, types.OptReconnectIvlMax); err == nil {
		c.ivlMax = time.Duration(v) * time.Millisecond
	}
	c.next = c.ivl
	c.timer = aio.NewTimer(ep.Context(), c)

	ep.Setup(c)
	c.dial()
	return nil
}

// dial 在独立 goroutine 中拨号
func (c *connector) dial() {
	dctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.incr(types.StatInProgressConnections, 1)

	network := c.addr.Network(c.ep.Options().IPv4Only)
	target := c.addr.HostPort()
	timeout := c.t.cfg.DialTimeout
	c.group.Go(func() error {
		d := net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(dctx, network, target)
		c.ep.Context().Post(func() { c.dialed(conn, err) })
		return nil
	})
}

func (c *connector) dialed(conn net.Conn, err error) {
	c.incr(types.StatInProgressConnections, -1)
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.stopping {
		if conn != nil {
			_ = conn.Close()
		}
		return
	}

	if err != nil {
		c.incr(types.StatConnectErrors, 1)
		logger.Debug("拨号失败", "endpoint", log.ShortID(c.ep.ID()), "addr", c.addr, "errno", errclass.New(err))
		c.ep.SetError(err)
		c.retry()
		return
	}

	c.t.tune(c.ep, conn)
	c.incr(types.StatEstablishedConnections, 1)
	c.sess = newSession(c, c.ep, conn, readParams(c.ep, c.t.cfg.DialTimeout))
	c.group.Go(c.sess.run)
}

// retry 启动重连定时器，设置了上限时间隔翻倍
func (c *connector) retry() {
	c.timer.Start(c.next)
	if c.ivlMax > c.ivl {
		c.next *= 2
		if c.next > c.ivlMax {
			c.next = c.ivlMax
		}
	}
	logger.Debug("等待重连", "endpoint", log.ShortID(c.ep.ID()), "next", c.next)
}

// Feed 实现 aio.Sink，处理重连定时器
func (c *connector) Feed(ev aio.Event) {
	if ev.Type != aio.EventTimeout || c.stopping {
		return
	}
	c.dial()
}

func (c *connector) sessionStarted(*session) {
	c.next = c.ivl
}

func (c *connector) sessionClosed(s *session) {
	if c.sess == s {
		c.sess = nil
	}
	if !c.stopping {
		c.retry()
	}
}

// Stop 实现 transport.EndpointHandler
func (c *connector) Stop() {
	c.stopping = true
	c.timer.Stop()
	if c.cancel != nil {
		c.cancel()
	}
	if c.sess != nil {
		c.sess.stop()
		c.sess = nil
	}

	go func() {
		_ = c.group.Wait()
		c.ep.Context().Post(c.ep.Stopped)
	}()
}

// Destroy 实现 transport.EndpointHandler
func (c *connector) Destroy() {}

func (c *connector) incr(name types.Stat, delta int64) {
	if err := c.ep.IncrementStat(name, delta); err != nil {
		logger.Warn("统计更新失败", "stat", name, "error", err)
	}
}
