package eventbus

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-sptransport/pkg/lib/log"
)

var logger = log.Logger("core/eventbus")

// ============================================================================
// 错误定义
// ============================================================================

var (
	// ErrClosed 事件总线已关闭
	ErrClosed = errors.New("eventbus closed")
	// ErrEmitterClosed 发射器已关闭
	ErrEmitterClosed = errors.New("emitter is closed")
)

// ============================================================================
// Bus 实现
// ============================================================================

// Bus 事件总线
type Bus struct {
	mu     sync.RWMutex
	closed bool

	// nodes 事件类型节点映射
	nodes map[reflect.Type]*node
}

// sink 类型擦除后的订阅者
type sink interface {
	// deliver 非阻塞投递，缓冲区满时返回 false
	deliver(ev any) bool
	// shutdown 关闭输出通道，调用方持有节点锁
	shutdown()
}

// node 事件类型节点
type node struct {
	lk        sync.Mutex
	typ       reflect.Type
	sinks     []sink
	nEmitters atomic.Int32
	keepLast  bool
	last      any
	dropCount atomic.Int64
}

// NewBus 创建新的事件总线
func NewBus() *Bus {
	return &Bus{
		nodes: make(map[reflect.Type]*node),
	}
}

// EventTypes 返回当前有订阅者或发射器的事件类型
func (b *Bus) EventTypes() []reflect.Type {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]reflect.Type, 0, len(b.nodes))
	for typ := range b.nodes {
		out = append(out, typ)
	}
	return out
}

// Close 关闭总线，所有订阅的通道随之关闭
//
// 关闭后 Subscribe/NewEmitter 返回 ErrClosed，已有发射器的 Emit 被忽略。
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	nodes := b.nodes
	b.nodes = make(map[reflect.Type]*node)
	b.mu.Unlock()

	for _, n := range nodes {
		n.lk.Lock()
		for _, s := range n.sinks {
			s.shutdown()
		}
		n.sinks = nil
		n.lk.Unlock()
	}
	logger.Debug("事件总线已关闭", "types", len(nodes))
	return nil
}

// ============================================================================
// 内部方法
// ============================================================================

// withNode 在节点上执行操作
func (b *Bus) withNode(typ reflect.Type, cb func(*node)) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}

	n, ok := b.nodes[typ]
	if !ok {
		n = &node{typ: typ}
		b.nodes[typ] = n
	}

	n.lk.Lock()
	b.mu.Unlock()

	cb(n)
	n.lk.Unlock()
	return nil
}

// tryDropNode 尝试删除节点（如果没有订阅者和发射器）
func (b *Bus) tryDropNode(typ reflect.Type) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, ok := b.nodes[typ]
	if !ok {
		return
	}

	n.lk.Lock()
	idle := len(n.sinks) == 0 && n.nEmitters.Load() == 0
	n.lk.Unlock()

	if idle {
		delete(b.nodes, typ)
	}
}

// removeSink 移除订阅并关闭其通道
func (b *Bus) removeSink(typ reflect.Type, s sink) {
	b.mu.Lock()
	n, ok := b.nodes[typ]
	if !ok {
		b.mu.Unlock()
		return
	}
	n.lk.Lock()
	b.mu.Unlock()

	for i, cur := range n.sinks {
		if cur == s {
			n.sinks = append(n.sinks[:i], n.sinks[i+1:]...)
			s.shutdown()
			break
		}
	}
	shouldDrop := len(n.sinks) == 0 && n.nEmitters.Load() == 0
	n.lk.Unlock()

	if shouldDrop {
		b.tryDropNode(typ)
	}
}

// emit 发射事件到所有订阅者
func (n *node) emit(event any) {
	n.lk.Lock()
	defer n.lk.Unlock()

	if n.keepLast {
		n.last = event
	}

	for _, s := range n.sinks {
		if s.deliver(event) {
			continue
		}
		dropped := n.dropCount.Add(1)

		// 每丢弃 100 个事件警告一次
		if dropped%100 == 1 {
			logger.Warn("慢消费者检测",
				"dropped", dropped,
				"type", n.typ,
				"reason", "subscriber buffer full")
		}
	}
}

// typeOf 返回 T 的反射类型
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
