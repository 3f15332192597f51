package eventbus

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// ============================================================================
// Emitter 实现
// ============================================================================

// Emitter 类型为 T 的事件发射器
type Emitter[T any] struct {
	bus       *Bus
	node      *node
	typ       reflect.Type
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewEmitter 获取类型为 T 的发射器
func NewEmitter[T any](b *Bus, opts ...EmitterOpt) (*Emitter[T], error) {
	var settings emitterSettings
	for _, opt := range opts {
		opt(&settings)
	}

	e := &Emitter[T]{bus: b, typ: typeOf[T]()}
	err := b.withNode(e.typ, func(n *node) {
		e.node = n
		n.nEmitters.Add(1)
		if settings.Stateful {
			n.keepLast = true
		}
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Emit 发射事件，从不阻塞
func (e *Emitter[T]) Emit(event T) error {
	if e.closed.Load() {
		return ErrEmitterClosed
	}
	e.node.emit(event)
	return nil
}

// Close 关闭发射器，引用计数归零时尝试删除节点
func (e *Emitter[T]) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		if e.node.nEmitters.Add(-1) == 0 {
			e.bus.tryDropNode(e.typ)
		}
	})
	return nil
}
