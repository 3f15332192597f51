package tcp

import (
	"net"
	"sync"
	"time"

	"github.com/dep2p/go-sptransport/internal/core/optset"
	itf "github.com/dep2p/go-sptransport/pkg/interfaces/transport"
	"github.com/dep2p/go-sptransport/pkg/lib/log"
	"github.com/dep2p/go-sptransport/pkg/types"
)

var logger = log.Logger("core/transport/tcp")

// Name 地址前缀
const Name = "tcp"

// Config TCP 传输配置
type Config struct {
	// NoDelay TCP_NODELAY 选项的默认值
	NoDelay bool

	// DialTimeout 拨号与握手超时
	DialTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		NoDelay:     false,
		DialTimeout: 5 * time.Second,
	}
}

// ============================================================================
//                              Transport
// ============================================================================

// Transport TCP 传输
type Transport struct {
	cfg Config

	mu    sync.Mutex
	bound map[string]net.Addr
}

// New 创建 TCP 传输
func New(cfg Config) *Transport {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultConfig().DialTimeout
	}
	return &Transport{
		cfg:   cfg,
		bound: make(map[string]net.Addr),
	}
}

// Descriptor 返回注册用的传输描述符
func (t *Transport) Descriptor() *itf.Descriptor {
	return &itf.Descriptor{
		Name:    Name,
		ID:      types.TransportTCP,
		Term:    t.term,
		Bind:    t.bind,
		Connect: t.connect,
		OptSet:  t.newOptSet,
	}
}

// newOptSet 创建 TCP 级选项集
func (t *Transport) newOptSet() itf.OptionSet {
	return optset.New(optset.Bool(types.OptTCPNoDelay, "nodelay", t.cfg.NoDelay))
}

// BoundAddr 返回绑定端点实际监听的地址
func (t *Transport) BoundAddr(endpointID string) (net.Addr, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.bound[endpointID]
	return a, ok
}

func (t *Transport) track(endpointID string, a net.Addr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bound[endpointID] = a
}

func (t *Transport) untrack(endpointID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.bound, endpointID)
}

func (t *Transport) term() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.bound); n > 0 {
		logger.Warn("终止时仍有监听", "count", n)
	}
	t.bound = make(map[string]net.Addr)
}

// tune 按端点选项设置连接参数，必须在端点上下文内调用
func (t *Transport) tune(ep itf.Endpoint, conn net.Conn) {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	nodelay := t.cfg.NoDelay
	if v, err := ep.GetIntOption(types.TransportLevel(types.TransportTCP), types.OptTCPNoDelay); err == nil {
		nodelay = v != 0
	}
	if err := tc.SetNoDelay(nodelay); err != nil {
		logger.Debug("设置 TCP_NODELAY 失败", "error", err)
	}
}
