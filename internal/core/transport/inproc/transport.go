package inproc

import (
	"fmt"
	"sync"

	itf "github.com/dep2p/go-sptransport/pkg/interfaces/transport"
	"github.com/dep2p/go-sptransport/pkg/lib/log"
	"github.com/dep2p/go-sptransport/pkg/types"
)

var logger = log.Logger("core/transport/inproc")

// Name 地址前缀
const Name = "inproc"

// Config 进程内传输配置
type Config struct {
	// QueueDepth 每个方向的队列深度
	QueueDepth int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{QueueDepth: 16}
}

// ============================================================================
//                              Transport
// ============================================================================

// Transport 进程内传输
type Transport struct {
	cfg Config

	mu         sync.Mutex
	bound      map[string]*binder
	connectors map[string]map[*connector]struct{}
}

// New 创建进程内传输
func New(cfg Config) *Transport {
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = DefaultConfig().QueueDepth
	}
	t := &Transport{cfg: cfg}
	t.reset()
	return t
}

// Descriptor 返回注册用的传输描述符
func (t *Transport) Descriptor() *itf.Descriptor {
	return &itf.Descriptor{
		Name:    Name,
		ID:      types.TransportInproc,
		Init:    t.init,
		Term:    t.term,
		Bind:    t.bind,
		Connect: t.connect,
	}
}

func (t *Transport) init() {
	t.reset()
	logger.Debug("进程内传输已初始化", "queueDepth", t.cfg.QueueDepth)
}

func (t *Transport) term() {
	t.mu.Lock()
	n := len(t.bound)
	t.mu.Unlock()
	if n > 0 {
		logger.Warn("终止时仍有绑定名称", "count", n)
	}
	t.reset()
}

func (t *Transport) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bound = make(map[string]*binder)
	t.connectors = make(map[string]map[*connector]struct{})
}

// Bound 返回名称是否已被绑定
func (t *Transport) Bound(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.bound[name]
	return ok
}

// bind 登记名称并与等待中的连接端点建立会话
func (t *Transport) bind(ep itf.Endpoint) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	name := ep.Addr()
	if _, ok := t.bound[name]; ok {
		return fmt.Errorf("%w: %s", ErrAddrInUse, name)
	}

	b := &binder{t: t, ep: ep}
	ep.Setup(b)
	t.bound[name] = b
	for c := range t.connectors[name] {
		t.pair(c, b)
	}
	logger.Debug("名称已绑定", "name", name, "endpoint", log.ShortID(ep.ID()))
	return nil
}

// connect 登记连接端点，名称已绑定时立即建立会话
func (t *Transport) connect(ep itf.Endpoint) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	name := ep.Addr()
	c := &connector{t: t, ep: ep}
	ep.Setup(c)

	set, ok := t.connectors[name]
	if !ok {
		set = make(map[*connector]struct{})
		t.connectors[name] = set
	}
	set[c] = struct{}{}

	if b, ok := t.bound[name]; ok {
		t.pair(c, b)
	} else {
		logger.Debug("等待绑定", "name", name, "endpoint", log.ShortID(ep.ID()))
	}
	return nil
}

// pair 在两端上下文内各启动一个会话，调用者持有 t.mu
func (t *Transport) pair(c *connector, b *binder) {
	if !c.ep.IsPeerOf(b.ep) {
		logger.Warn("套接字类型不兼容，忽略连接",
			"name", b.ep.Addr(),
			"connect", c.ep.Socket().Type(),
			"bind", b.ep.Socket().Type())
		return
	}

	up := newLane(t.cfg.QueueDepth)
	down := newLane(t.cfg.QueueDepth)
	cs := newSession(&c.sessions, c.ep, down, up, false)
	bs := newSession(&b.sessions, b.ep, up, down, true)
	cs.peer = bs
	bs.peer = cs

	cs.post(cs.start)
	bs.post(bs.start)
}

func (t *Transport) unbind(b *binder) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bound[b.ep.Addr()] == b {
		delete(t.bound, b.ep.Addr())
	}
}

func (t *Transport) disconnect(c *connector) {
	t.mu.Lock()
	defer t.mu.Unlock()
	name := c.ep.Addr()
	delete(t.connectors[name], c)
	if len(t.connectors[name]) == 0 {
		delete(t.connectors, name)
	}
}

// ============================================================================
//                              端点处理器
// ============================================================================

// binder 绑定端点处理器
type binder struct {
	t  *Transport
	ep itf.Endpoint
	sessions
}

// Stop 实现 transport.EndpointHandler
func (b *binder) Stop() {
	b.t.unbind(b)
	b.stopAll()
	b.ep.Stopped()
}

// Destroy 实现 transport.EndpointHandler
func (b *binder) Destroy() {}

// connector 连接端点处理器
type connector struct {
	t  *Transport
	ep itf.Endpoint
	sessions
}

// Stop 实现 transport.EndpointHandler
func (c *connector) Stop() {
	c.t.disconnect(c)
	c.stopAll()
	c.ep.Stopped()
}

// Destroy 实现 transport.EndpointHandler
func (c *connector) Destroy() {}
