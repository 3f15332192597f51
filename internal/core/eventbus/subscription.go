package eventbus

import (
	"reflect"
	"sync"
)

// ============================================================================
// Subscription 实现
// ============================================================================

// Subscription 某一事件类型的订阅
type Subscription[T any] struct {
	bus       *Bus
	typ       reflect.Type
	out       chan T
	closeOnce sync.Once
	shutOnce  sync.Once
}

// Subscribe 订阅类型为 T 的事件
func Subscribe[T any](b *Bus, opts ...SubscriptionOpt) (*Subscription[T], error) {
	settings := subscriptionSettings{Buffer: 16}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.Buffer < 0 {
		settings.Buffer = 0
	}

	sub := &Subscription[T]{
		bus: b,
		typ: typeOf[T](),
		out: make(chan T, settings.Buffer),
	}

	err := b.withNode(sub.typ, func(n *node) {
		n.sinks = append(n.sinks, sub)

		// 有状态节点：补发最后的事件
		if n.keepLast && n.last != nil {
			sub.deliver(n.last)
		}
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Out 返回事件通道，订阅关闭后通道被关闭
func (s *Subscription[T]) Out() <-chan T {
	return s.out
}

// Close 取消订阅，可重复调用
func (s *Subscription[T]) Close() error {
	s.closeOnce.Do(func() {
		s.bus.removeSink(s.typ, s)
	})
	return nil
}

func (s *Subscription[T]) deliver(ev any) bool {
	v, ok := ev.(T)
	if !ok {
		return true
	}
	select {
	case s.out <- v:
		return true
	default:
		return false
	}
}

func (s *Subscription[T]) shutdown() {
	s.shutOnce.Do(func() {
		close(s.out)
	})
}
