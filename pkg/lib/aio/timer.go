package aio

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Timer 一次性定时器
//
// 所有方法都必须在所属 Context 内调用。超时时向 owner 发出
// EventTimeout，事件源为 Timer 本身。
type Timer struct {
	ctx   *Context
	owner Sink

	t      *clock.Timer
	gen    uint64
	active bool
}

// NewTimer 创建定时器
func NewTimer(ctx *Context, owner Sink) *Timer {
	return &Timer{
		ctx:   ctx,
		owner: owner,
	}
}

// Start 启动定时器
//
// 已在运行的定时器会先被停止。
func (t *Timer) Start(d time.Duration) {
	t.Stop()
	t.gen++
	t.active = true
	gen := t.gen
	t.t = t.ctx.Clock().AfterFunc(d, func() {
		t.ctx.Post(func() {
			t.fire(gen)
		})
	})
}

// Stop 停止定时器，之后不会再投递超时事件
func (t *Timer) Stop() {
	if !t.active {
		return
	}
	t.active = false
	t.gen++
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
}

// Active 定时器是否在运行
func (t *Timer) Active() bool {
	return t.active
}

func (t *Timer) fire(gen uint64) {
	if !t.active || gen != t.gen {
		return
	}
	t.active = false
	t.t = nil
	t.ctx.Raise(t.owner, t, EventTimeout)
}
