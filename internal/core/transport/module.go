package transport

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-sptransport/config"
	"github.com/dep2p/go-sptransport/internal/core/transport/inproc"
	"github.com/dep2p/go-sptransport/internal/core/transport/tcp"
)

// Config 传输层配置
type Config struct {
	// 协议开关
	EnableTCP    bool
	EnableInproc bool

	// TCP 配置
	TCPNoDelay     bool
	TCPDialTimeout time.Duration

	// Inproc 配置
	InprocQueueDepth int
}

// ConfigFromUnified 从统一配置创建传输配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return NewConfig()
	}
	return Config{
		EnableTCP:        cfg.Transport.EnableTCP,
		EnableInproc:     cfg.Transport.EnableInproc,
		TCPNoDelay:       cfg.Transport.TCP.NoDelay,
		TCPDialTimeout:   cfg.Transport.TCP.DialTimeout.Duration(),
		InprocQueueDepth: cfg.Transport.Inproc.QueueDepth,
	}
}

// NewConfig 创建默认配置
func NewConfig() Config {
	return Config{
		EnableTCP:        true,
		EnableInproc:     true,
		TCPNoDelay:       false,
		TCPDialTimeout:   5 * time.Second,
		InprocQueueDepth: 16,
	}
}

// NewRegistryFromConfig 创建注册表并注册已启用的传输
func NewRegistryFromConfig(cfg Config) (*Registry, error) {
	r := NewRegistry()

	var err error
	if cfg.EnableInproc {
		t := inproc.New(inproc.Config{QueueDepth: cfg.InprocQueueDepth})
		err = multierr.Append(err, r.Register(t.Descriptor()))
	}
	if cfg.EnableTCP {
		t := tcp.New(tcp.Config{NoDelay: cfg.TCPNoDelay, DialTimeout: cfg.TCPDialTimeout})
		err = multierr.Append(err, r.Register(t.Descriptor()))
	}
	if err != nil {
		return nil, err
	}

	logger.Info("传输注册表创建成功", "transportCount", len(r.Descriptors()))
	return r, nil
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("transport",
		fx.Provide(
			ProvideConfig,
			NewRegistryFromConfig,
		),
		fx.Invoke(registerLifecycle),
	)
}

// configInput 配置输入参数
type configInput struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// ProvideConfig 从统一配置提供传输配置
func ProvideConfig(in configInput) Config {
	return ConfigFromUnified(in.UnifiedCfg)
}

// registerLifecycle 停止时检查是否有套接字未关闭
func registerLifecycle(lc fx.Lifecycle, r *Registry) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if n := r.Refs(); n > 0 {
				logger.Warn("仍有套接字未关闭", "refs", n)
			}
			return nil
		},
	})
}
