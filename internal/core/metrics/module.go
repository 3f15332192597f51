package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-sptransport/config"
)

// Config 指标配置
type Config struct {
	// Enabled 是否向 Prometheus 注册收集器
	Enabled bool

	// Namespace 指标名前缀
	Namespace string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Namespace: "sp",
	}
}

// ConfigFromUnified 从统一配置创建指标配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Enabled:   cfg.Metrics.Enabled,
		Namespace: cfg.Metrics.Namespace,
	}
}

// Params Metrics 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config         `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// Module 是 metrics 的 Fx 模块
var Module = fx.Module("metrics",
	fx.Provide(NewCollectorFromParams),
	fx.Invoke(registerLifecycle),
)

// NewCollectorFromParams 从参数创建 Collector
func NewCollectorFromParams(p Params) *Collector {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	return NewCollector(cfg.Namespace)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In

	LC         fx.Lifecycle
	Collector  *Collector
	UnifiedCfg *config.Config         `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// registerLifecycle 启动时注册到 Prometheus，停止时注销
func registerLifecycle(in lifecycleInput) {
	cfg := ConfigFromUnified(in.UnifiedCfg)
	if !cfg.Enabled || in.Registerer == nil {
		return
	}
	in.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return in.Registerer.Register(in.Collector)
		},
		OnStop: func(_ context.Context) error {
			in.Registerer.Unregister(in.Collector)
			return nil
		},
	})
}
