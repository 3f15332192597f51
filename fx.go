package sptransport

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-sptransport/config"
	"github.com/dep2p/go-sptransport/internal/core/eventbus"
	"github.com/dep2p/go-sptransport/internal/core/metrics"
	"github.com/dep2p/go-sptransport/internal/core/socket"
	"github.com/dep2p/go-sptransport/internal/core/transport"
)

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. EventBus、Metrics
//  2. Transport 注册表
//  3. Socket 工厂
func buildFxApp(o *options, lib *Library) (*fx.App, error) {
	if err := config.ValidateAll(o.config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(o.config),
		eventbus.Module(),
		metrics.Module,
		transport.Module(),
		socket.Module(),
		fx.Populate(&lib.factory, &lib.registry, &lib.bus),
	}
	if o.registerer != nil {
		registerer := o.registerer
		modules = append(modules, fx.Provide(func() prometheus.Registerer { return registerer }))
	}
	modules = append(modules, o.fxOptions...)
	modules = append(modules,
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("fx app creation failed: %w", err)
	}
	return app, nil
}
