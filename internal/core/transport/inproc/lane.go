package inproc

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/dep2p/go-sptransport/pkg/types"
)

// lane 单向有界消息队列，由写端和读端两个上下文共享
type lane struct {
	mu     sync.Mutex
	depth  int
	msgs   *queue.Queue
	closed bool

	// readerParked 读端接收方向已释放，等待 Received
	readerParked bool
	// writerParked 写端发送方向已释放，等待 Sent
	writerParked bool
}

func newLane(depth int) *lane {
	return &lane{
		depth:        depth,
		msgs:         queue.New(),
		readerParked: true,
	}
}

// push 写入一条消息
//
// wakeReader 表示读端在等待，需要通知 Received；
// full 表示写入后队列已满，写端应释放发送方向。
func (l *lane) push(msg *types.Message) (wakeReader, full bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false, false, ErrDisconnected
	}
	l.msgs.Add(msg)
	if l.readerParked {
		l.readerParked = false
		wakeReader = true
	}
	if l.msgs.Length() >= l.depth {
		l.writerParked = true
		full = true
	}
	return wakeReader, full, nil
}

// pop 取出一条消息
//
// more 表示队列中还有消息，读端可同步完成；
// wakeWriter 表示写端在等待且已有空位，需要通知 Sent。
func (l *lane) pop() (msg *types.Message, more, wakeWriter bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.msgs.Length() == 0 {
		l.readerParked = true
		return nil, false, false
	}
	msg = l.msgs.Remove().(*types.Message)
	more = l.msgs.Length() > 0
	if !more {
		l.readerParked = true
	}
	if l.writerParked && l.msgs.Length() < l.depth {
		l.writerParked = false
		wakeWriter = true
	}
	return msg, more, wakeWriter
}

// close 关闭队列，丢弃未读消息
func (l *lane) close() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	n := l.msgs.Length()
	for l.msgs.Length() > 0 {
		l.msgs.Remove()
	}
	return n
}

// len 返回排队消息数
func (l *lane) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.msgs.Length()
}
