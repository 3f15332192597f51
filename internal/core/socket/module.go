package socket

import (
	"context"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-sptransport/config"
	"github.com/dep2p/go-sptransport/internal/core/eventbus"
	"github.com/dep2p/go-sptransport/internal/core/metrics"
	"github.com/dep2p/go-sptransport/internal/core/transport"
	"github.com/dep2p/go-sptransport/pkg/types"
)

// ============================================================================
//                              Factory
// ============================================================================

// Factory 套接字工厂，跟踪创建的套接字以便统一关闭
type Factory struct {
	reg  *transport.Registry
	opts []Option

	mu      sync.Mutex
	sockets map[string]*Socket
}

// NewFactory 创建工厂
func NewFactory(reg *transport.Registry, opts ...Option) *Factory {
	return &Factory{
		reg:     reg,
		opts:    opts,
		sockets: make(map[string]*Socket),
	}
}

// New 创建套接字
func (f *Factory) New(st types.SocketType) (*Socket, error) {
	s, err := New(st, f.reg, f.opts...)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.sockets[s.ID()] = s
	f.mu.Unlock()
	return s, nil
}

// Close 关闭单个套接字并停止跟踪
func (f *Factory) Close(ctx context.Context, s *Socket) error {
	if err := s.Close(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	delete(f.sockets, s.ID())
	f.mu.Unlock()
	return nil
}

// Len 返回仍在跟踪的套接字数量
func (f *Factory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sockets)
}

// CloseAll 关闭所有仍在跟踪的套接字
func (f *Factory) CloseAll(ctx context.Context) error {
	f.mu.Lock()
	socks := make([]*Socket, 0, len(f.sockets))
	for _, s := range f.sockets {
		socks = append(socks, s)
	}
	f.mu.Unlock()

	var err error
	for _, s := range socks {
		err = multierr.Append(err, f.Close(ctx, s))
	}
	return err
}

// ============================================================================
//                              Fx 模块
// ============================================================================

// Params 工厂依赖参数
type Params struct {
	fx.In

	Registry   *transport.Registry
	UnifiedCfg *config.Config     `optional:"true"`
	Bus        *eventbus.Bus      `optional:"true"`
	Collector  *metrics.Collector `optional:"true"`
}

// NewFactoryFromParams 从参数创建工厂
func NewFactoryFromParams(p Params) *Factory {
	opts := []Option{WithConfig(ConfigFromUnified(p.UnifiedCfg))}
	if p.Bus != nil {
		opts = append(opts, WithBus(p.Bus))
	}
	if p.Collector != nil {
		opts = append(opts, WithCollector(p.Collector))
	}
	return NewFactory(p.Registry, opts...)
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("socket",
		fx.Provide(NewFactoryFromParams),
		fx.Invoke(registerLifecycle),
	)
}

// registerLifecycle 停止时关闭所有套接字
func registerLifecycle(lc fx.Lifecycle, f *Factory) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if n := f.Len(); n > 0 {
				logger.Info("关闭剩余套接字", "count", n)
			}
			return f.CloseAll(ctx)
		},
	})
}
