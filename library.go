package sptransport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-sptransport/internal/core/eventbus"
	"github.com/dep2p/go-sptransport/internal/core/socket"
	"github.com/dep2p/go-sptransport/internal/core/transport"
	"github.com/dep2p/go-sptransport/pkg/lib/log"
	"github.com/dep2p/go-sptransport/pkg/types"
)

var logger = log.Logger("sptransport")

// startTimeout Fx 启动超时
const startTimeout = 10 * time.Second

// Socket 套接字
type Socket = socket.Socket

// Library 库实例
//
// 持有传输注册表、事件总线与套接字工厂。
type Library struct {
	app *fx.App

	factory  *socket.Factory
	registry *transport.Registry
	bus      *eventbus.Bus

	mu     sync.Mutex
	closed bool
}

// New 创建并启动库实例
func New(opts ...Option) (*Library, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	lib := &Library{}
	app, err := buildFxApp(o, lib)
	if err != nil {
		return nil, err
	}
	lib.app = app

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return nil, fmt.Errorf("start library: %w", err)
	}

	logger.Info("库已启动", "transports", len(lib.registry.Descriptors()))
	return lib, nil
}

// Socket 创建指定类型的套接字
func (l *Library) Socket(st types.SocketType) (*Socket, error) {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return nil, ErrLibraryClosed
	}
	return l.factory.New(st)
}

// CloseSocket 关闭套接字，等待其端点停止
func (l *Library) CloseSocket(ctx context.Context, s *Socket) error {
	return l.factory.Close(ctx, s)
}

// Bus 返回监控事件总线
func (l *Library) Bus() *eventbus.Bus {
	return l.bus
}

// Transports 返回已注册的传输名称
func (l *Library) Transports() []string {
	ds := l.registry.Descriptors()
	names := make([]string, 0, len(ds))
	for _, d := range ds {
		names = append(names, d.Name)
	}
	return names
}

// Close 关闭所有套接字并停止库，可重复调用
func (l *Library) Close(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	if err := l.app.Stop(ctx); err != nil {
		return fmt.Errorf("stop library: %w", err)
	}
	logger.Info("库已关闭")
	return nil
}
