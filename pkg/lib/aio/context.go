package aio

import (
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/eapache/queue"
)

// ============================================================================
//                              事件
// ============================================================================

// EventType 事件类型
type EventType int

const (
	// EventTimeout 定时器超时
	EventTimeout EventType = iota + 1

	// EventUser 上层组件自定义事件的起始值
	EventUser EventType = 1000
)

// Event 一次事件投递
type Event struct {
	// Src 事件源（管道、端点、定时器等）
	Src any

	// Type 事件类型
	Type EventType
}

// Sink 事件接收者
type Sink interface {
	// Feed 处理一个事件，在 Context 内调用
	Feed(ev Event)
}

// SinkFunc 将函数适配为 Sink
type SinkFunc func(ev Event)

// Feed 实现 Sink
func (f SinkFunc) Feed(ev Event) {
	f(ev)
}

// delivery 待投递的事件
type delivery struct {
	dst Sink
	ev  Event
}

// ============================================================================
//                              Context
// ============================================================================

// Context 异步执行上下文
type Context struct {
	mu sync.Mutex

	// events 在 Context 内发出、等待 Leave 时投递的事件
	events *queue.Queue

	// posted 从外部提交、等待执行的函数
	postMu   sync.Mutex
	posted   *queue.Queue
	draining bool

	clock clock.Clock
}

// Option Context 选项
type Option func(*Context)

// WithClock 指定时钟（测试中使用 clock.NewMock()）
func WithClock(clk clock.Clock) Option {
	return func(c *Context) {
		c.clock = clk
	}
}

// NewContext 创建执行上下文
func NewContext(opts ...Option) *Context {
	c := &Context{
		events: queue.New(),
		posted: queue.New(),
		clock:  clock.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clock 返回上下文使用的时钟
func (c *Context) Clock() clock.Clock {
	return c.clock
}

// Enter 进入上下文
func (c *Context) Enter() {
	c.mu.Lock()
}

// Leave 投递所有排队事件后离开上下文
//
// 投递过程中新发出的事件同样会在本次 Leave 中投递。
func (c *Context) Leave() {
	c.flush()
	c.mu.Unlock()
}

// Do 在上下文内执行 fn
func (c *Context) Do(fn func()) {
	c.Enter()
	defer c.Leave()
	fn()
}

// Raise 发出事件，必须在上下文内调用
func (c *Context) Raise(dst Sink, src any, typ EventType) {
	c.events.Add(delivery{dst: dst, ev: Event{Src: src, Type: typ}})
}

// Purge 丢弃来自 src 的所有待投递事件，返回丢弃数量
//
// 必须在上下文内调用。用于对象停止后保证不再有事件送达。
func (c *Context) Purge(src any) int {
	n := c.events.Length()
	dropped := 0
	for i := 0; i < n; i++ {
		d := c.events.Remove().(delivery)
		if d.ev.Src == src {
			dropped++
			continue
		}
		c.events.Add(d)
	}
	return dropped
}

// Pending 返回待投递事件数量，必须在上下文内调用
func (c *Context) Pending() int {
	return c.events.Length()
}

func (c *Context) flush() {
	for c.events.Length() > 0 {
		d := c.events.Remove().(delivery)
		d.dst.Feed(d.ev)
	}
}

// ============================================================================
//                              Post - 异步提交
// ============================================================================

// Post 提交一个在上下文内异步执行的函数
//
// 可以从任意 goroutine（包括其他上下文内）调用，不会阻塞。
// 同一 Context 上提交的函数按提交顺序执行。
func (c *Context) Post(fn func()) {
	c.postMu.Lock()
	c.posted.Add(fn)
	if c.draining {
		c.postMu.Unlock()
		return
	}
	c.draining = true
	c.postMu.Unlock()

	go c.drainPosted()
}

func (c *Context) drainPosted() {
	for {
		c.postMu.Lock()
		if c.posted.Length() == 0 {
			c.draining = false
			c.postMu.Unlock()
			return
		}
		fn := c.posted.Remove().(func())
		c.postMu.Unlock()

		c.Do(fn)
	}
}

// Sync 等待此前提交的所有函数执行完毕
//
// 不得在上下文内调用。
func (c *Context) Sync() {
	done := make(chan struct{})
	c.Post(func() { close(done) })
	<-done
}
