package socket

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/dep2p/go-sptransport/internal/core/endpoint"
	"github.com/dep2p/go-sptransport/internal/core/eventbus"
	"github.com/dep2p/go-sptransport/internal/core/metrics"
	"github.com/dep2p/go-sptransport/internal/core/optset"
	"github.com/dep2p/go-sptransport/internal/core/peer"
	"github.com/dep2p/go-sptransport/internal/core/transport"
	itf "github.com/dep2p/go-sptransport/pkg/interfaces/transport"
	"github.com/dep2p/go-sptransport/pkg/lib/aio"
	"github.com/dep2p/go-sptransport/pkg/lib/log"
	"github.com/dep2p/go-sptransport/pkg/types"
)

var logger = log.Logger("core/socket")

// ============================================================================
//                              选项
// ============================================================================

// Option 套接字构造选项
type Option func(*settings)

type settings struct {
	cfg       Config
	bus       *eventbus.Bus
	collector *metrics.Collector
	clock     clock.Clock
}

// WithConfig 指定默认选项
func WithConfig(cfg Config) Option {
	return func(s *settings) { s.cfg = cfg }
}

// WithBus 发布监控事件到总线
func WithBus(bus *eventbus.Bus) Option {
	return func(s *settings) { s.bus = bus }
}

// WithCollector 将统计登记到 Prometheus 收集器
func WithCollector(c *metrics.Collector) Option {
	return func(s *settings) { s.collector = c }
}

// WithClock 指定上下文时钟（测试中使用 clock.NewMock()）
func WithClock(clk clock.Clock) Option {
	return func(s *settings) { s.clock = clk }
}

// ============================================================================
//                              Socket
// ============================================================================

// Socket 套接字核心
type Socket struct {
	id    string
	typ   types.SocketType
	ctx   *aio.Context
	reg   *transport.Registry
	stats *metrics.Stats
	mon   *monitor

	collector *metrics.Collector

	opts   *optset.Set
	optMu  sync.Mutex
	tropts map[int]itf.OptionSet

	// 以下字段只在 ctx 内访问
	eps     map[string]*endpoint.Endpoint
	pipes   map[itf.Pipe]struct{}
	in      readyList
	out     readyList
	inWake  chan struct{}
	outWake chan struct{}
	closing bool

	stopped     chan struct{}
	stoppedOnce sync.Once
	finalOnce   sync.Once
	finalErr    error
}

var _ itf.Socket = (*Socket)(nil)

// New 创建套接字并增加注册表引用计数
func New(st types.SocketType, reg *transport.Registry, opts ...Option) (*Socket, error) {
	if !peer.Known(st) {
		return nil, fmt.Errorf("%w: %d", types.ErrUnknownSocketType, int(st))
	}

	set := settings{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&set)
	}

	var ctxOpts []aio.Option
	if set.clock != nil {
		ctxOpts = append(ctxOpts, aio.WithClock(set.clock))
	}
	ctx := aio.NewContext(ctxOpts...)

	mon, err := newMonitor(set.bus)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	s := &Socket{
		id:        id,
		typ:       st,
		ctx:       ctx,
		reg:       reg,
		stats:     metrics.NewStats(id, metrics.WithStatsClock(ctx.Clock())),
		mon:       mon,
		collector: set.collector,
		opts:      set.cfg.optionTable(st),
		tropts:    make(map[int]itf.OptionSet),
		eps:       make(map[string]*endpoint.Endpoint),
		pipes:     make(map[itf.Pipe]struct{}),
		inWake:    make(chan struct{}),
		outWake:   make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	s.out.prio = func(p itf.Pipe) int { return p.Options().SndPrio }
	s.in.prio = func(p itf.Pipe) int { return p.Options().RcvPrio }

	reg.Acquire()
	if s.collector != nil {
		s.collector.Register(s.stats)
	}

	logger.Info("套接字已创建", "socket", log.ShortID(id), "type", st)
	return s, nil
}

// ID 实现 transport.Socket
func (s *Socket) ID() string { return s.id }

// Type 实现 transport.Socket
func (s *Socket) Type() types.SocketType { return s.typ }

// Context 实现 transport.Socket
func (s *Socket) Context() *aio.Context { return s.ctx }

// Stats 返回套接字统计
func (s *Socket) Stats() *metrics.Stats { return s.stats }

// IsPeer 实现 transport.Socket
func (s *Socket) IsPeer(st types.SocketType) bool {
	return peer.Accepts(s.typ, st)
}

// IncrementStat 实现 transport.Socket
func (s *Socket) IncrementStat(name types.Stat, delta int64) error {
	return s.stats.Increment(name, delta)
}

// EndpointOptions 实现 transport.Socket
func (s *Socket) EndpointOptions() types.EndpointOptions {
	o := types.DefaultEndpointOptions()
	if v, err := s.opts.Int(types.OptSndPrio); err == nil {
		o.SndPrio = v
	}
	if v, err := s.opts.Int(types.OptRcvPrio); err == nil {
		o.RcvPrio = v
	}
	if v, err := s.opts.Int(types.OptIPv4Only); err == nil {
		o.IPv4Only = v != 0
	}
	return o
}

// ============================================================================
//                              端点
// ============================================================================

// Bind 绑定地址，返回端点 ID
func (s *Socket) Bind(addr string) (string, error) {
	return s.addEndpoint(addr, true)
}

// Connect 连接地址，返回端点 ID
func (s *Socket) Connect(addr string) (string, error) {
	return s.addEndpoint(addr, false)
}

func (s *Socket) addEndpoint(addr string, bind bool) (string, error) {
	desc, rest, err := s.reg.Lookup(addr)
	if err != nil {
		return "", err
	}

	var id string
	s.ctx.Do(func() {
		if s.closing {
			err = ErrClosed
			return
		}

		var ep *endpoint.Endpoint
		ep, err = endpoint.New(s, desc, rest, bind)
		if err != nil {
			ep.Destroy()
			return
		}
		if err = ep.Start(); err != nil {
			return
		}
		s.eps[ep.ID()] = ep
		id = ep.ID()
	})
	if err != nil {
		return "", err
	}

	logger.Debug("端点已添加", "socket", log.ShortID(s.id), "endpoint", log.ShortID(id), "addr", addr, "bind", bind)
	return id, nil
}

// Shutdown 停止并移除端点
//
// 端点在传输确认停止后销毁。
func (s *Socket) Shutdown(epID string) error {
	var err error
	s.ctx.Do(func() {
		ep, ok := s.eps[epID]
		if !ok {
			err = fmt.Errorf("%w: %s", ErrEndpointNotFound, epID)
			return
		}
		ep.Stop()
		if ep.State() == endpoint.StateStopped && ep.Handler() == nil {
			s.removeEndpoint(ep)
		}
	})
	return err
}

// EndpointInfo 端点快照
type EndpointInfo struct {
	ID    string
	URL   string
	Bind  bool
	State endpoint.State
	Errno string
}

// Endpoints 返回当前所有端点
func (s *Socket) Endpoints() []EndpointInfo {
	var out []EndpointInfo
	s.ctx.Do(func() {
		out = make([]EndpointInfo, 0, len(s.eps))
		for _, ep := range s.eps {
			out = append(out, EndpointInfo{
				ID:    ep.ID(),
				URL:   ep.URL(),
				Bind:  ep.IsBind(),
				State: ep.State(),
				Errno: ep.Errno(),
			})
		}
	})
	return out
}

func (s *Socket) removeEndpoint(ep *endpoint.Endpoint) {
	delete(s.eps, ep.ID())
	if s.closing && len(s.eps) == 0 {
		s.stoppedOnce.Do(func() { close(s.stopped) })
	}
}

// ============================================================================
//                              管道注册
// ============================================================================

// AddPipe 实现 transport.Socket
//
// PAIR 套接字同时只接受一条管道。
func (s *Socket) AddPipe(p itf.Pipe) error {
	if s.closing {
		return fmt.Errorf("%w: socket closing", itf.ErrPipeRejected)
	}
	if s.typ == types.SocketPair && len(s.pipes) > 0 {
		return fmt.Errorf("%w: pair socket already connected", itf.ErrPipeRejected)
	}

	s.pipes[p] = struct{}{}
	emit(s.mon.attached, types.EvtPipeAttached{
		SocketID:   s.id,
		EndpointID: p.Endpoint().ID(),
		PipeID:     p.ID(),
		Time:       s.ctx.Clock().Now(),
	})
	logger.Debug("管道已挂接", "socket", log.ShortID(s.id), "pipe", log.ShortID(p.ID()))
	return nil
}

// RemovePipe 实现 transport.Socket
func (s *Socket) RemovePipe(p itf.Pipe) {
	if _, ok := s.pipes[p]; !ok {
		return
	}
	delete(s.pipes, p)
	s.in.remove(p)
	s.out.remove(p)

	emit(s.mon.detached, types.EvtPipeDetached{
		SocketID:   s.id,
		EndpointID: p.Endpoint().ID(),
		PipeID:     p.ID(),
		Time:       s.ctx.Clock().Now(),
	})
	logger.Debug("管道已摘除", "socket", log.ShortID(s.id), "pipe", log.ShortID(p.ID()))
}

// Pipes 返回已注册的管道数量
func (s *Socket) Pipes() int {
	var n int
	s.ctx.Do(func() { n = len(s.pipes) })
	return n
}

// ReportError 实现 transport.Socket
func (s *Socket) ReportError(ep itf.Endpoint, errno string) {
	emit(s.mon.epErr, types.EvtEndpointError{
		SocketID:   s.id,
		EndpointID: ep.ID(),
		Addr:       ep.Addr(),
		Errno:      errno,
		Cleared:    errno == "",
		Time:       s.ctx.Clock().Now(),
	})
}

// ============================================================================
//                              事件
// ============================================================================

// Feed 实现 aio.Sink
func (s *Socket) Feed(ev aio.Event) {
	switch ev.Type {
	case itf.EventPipeIn:
		p := ev.Src.(itf.Pipe)
		if _, ok := s.pipes[p]; ok {
			s.in.add(p)
			s.inWake = wake(s.inWake)
		}
	case itf.EventPipeOut:
		p := ev.Src.(itf.Pipe)
		if _, ok := s.pipes[p]; ok {
			s.out.add(p)
			s.outWake = wake(s.outWake)
		}
	case itf.EventEndpointStopped:
		ep := ev.Src.(*endpoint.Endpoint)
		ep.Destroy()
		emit(s.mon.epStop, types.EvtEndpointStopped{
			SocketID:   s.id,
			EndpointID: ep.ID(),
			Addr:       ep.Addr(),
			Time:       s.ctx.Clock().Now(),
		})
		s.removeEndpoint(ep)
		logger.Debug("端点已销毁", "socket", log.ShortID(s.id), "endpoint", log.ShortID(ep.ID()))
	default:
		logger.Debug("忽略未知事件", "socket", log.ShortID(s.id), "type", ev.Type)
	}
}

// wake 唤醒等待者并返回新的等待通道
func wake(ch chan struct{}) chan struct{} {
	close(ch)
	return make(chan struct{})
}

// ============================================================================
//                              收发
// ============================================================================

// Send 非阻塞发送，没有就绪管道时返回 ErrAgain
func (s *Socket) Send(msg *types.Message) error {
	var err error
	s.ctx.Do(func() { err = s.send(msg) })
	return err
}

// Recv 非阻塞接收，没有就绪管道时返回 ErrAgain
func (s *Socket) Recv() (*types.Message, error) {
	var (
		msg *types.Message
		err error
	)
	s.ctx.Do(func() { msg, err = s.recv() })
	return msg, err
}

// SendContext 阻塞发送直到成功、出错或 ctx 结束
func (s *Socket) SendContext(ctx context.Context, msg *types.Message) error {
	for {
		var (
			err  error
			wait <-chan struct{}
		)
		s.ctx.Do(func() {
			err = s.send(msg)
			wait = s.outWake
		})
		if !errors.Is(err, ErrAgain) {
			return err
		}
		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RecvContext 阻塞接收直到成功、出错或 ctx 结束
func (s *Socket) RecvContext(ctx context.Context) (*types.Message, error) {
	for {
		var (
			msg  *types.Message
			err  error
			wait <-chan struct{}
		)
		s.ctx.Do(func() {
			msg, err = s.recv()
			wait = s.inWake
		})
		if !errors.Is(err, ErrAgain) {
			return msg, err
		}
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (s *Socket) send(msg *types.Message) error {
	if s.closing {
		return ErrClosed
	}
	p := s.out.next()
	if p == nil {
		return ErrAgain
	}

	size := int64(msg.Size())
	flags, err := p.Send(msg)
	if flags.Released() {
		s.out.remove(p)
	} else {
		s.out.rotate(p)
	}
	if err != nil {
		return fmt.Errorf("pipe send: %w", err)
	}

	s.incr(types.StatMessagesSent, 1)
	s.incr(types.StatBytesSent, size)
	return nil
}

func (s *Socket) recv() (*types.Message, error) {
	if s.closing {
		return nil, ErrClosed
	}
	p := s.in.next()
	if p == nil {
		return nil, ErrAgain
	}

	msg, flags, err := p.Recv()
	if flags.Released() {
		s.in.remove(p)
	} else {
		s.in.rotate(p)
	}
	if err != nil {
		return nil, fmt.Errorf("pipe recv: %w", err)
	}
	if !flags.Parsed() {
		msg.Merge()
	}

	s.incr(types.StatMessagesReceived, 1)
	s.incr(types.StatBytesReceived, int64(msg.Size()))
	return msg, nil
}

func (s *Socket) incr(name types.Stat, delta int64) {
	if err := s.stats.Increment(name, delta); err != nil {
		logger.Warn("统计更新失败", "socket", log.ShortID(s.id), "stat", name, "error", err)
	}
}

// ============================================================================
//                              关闭
// ============================================================================

// Close 停止所有端点，等待它们确认后释放资源
//
// ctx 结束时返回错误，资源保持未释放，可以再次调用 Close 继续等待。
func (s *Socket) Close(ctx context.Context) error {
	s.ctx.Do(func() {
		if s.closing {
			return
		}
		s.closing = true
		s.inWake = wake(s.inWake)
		s.outWake = wake(s.outWake)

		for _, ep := range s.eps {
			ep.Stop()
			if ep.State() == endpoint.StateStopped && ep.Handler() == nil {
				delete(s.eps, ep.ID())
			}
		}
		if len(s.eps) == 0 {
			s.stoppedOnce.Do(func() { close(s.stopped) })
		}
	})

	select {
	case <-s.stopped:
	case <-ctx.Done():
		return fmt.Errorf("waiting for endpoints to stop: %w", ctx.Err())
	}

	s.finalOnce.Do(func() {
		s.finalErr = s.finalize()
	})
	return s.finalErr
}

// finalize 释放选项集、统计登记与注册表引用
func (s *Socket) finalize() error {
	s.optMu.Lock()
	for id, set := range s.tropts {
		set.Destroy()
		delete(s.tropts, id)
	}
	s.optMu.Unlock()
	s.opts.Destroy()

	if s.collector != nil {
		s.collector.Unregister(s.id)
	}

	err := multierr.Combine(
		s.mon.close(),
		s.reg.Release(),
	)
	logger.Info("套接字已关闭", "socket", log.ShortID(s.id), "error", err)
	return err
}
