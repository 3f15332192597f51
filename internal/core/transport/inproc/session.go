package inproc

import (
	"github.com/bassosimone/runtimex"

	"github.com/dep2p/go-sptransport/internal/core/pipe"
	itf "github.com/dep2p/go-sptransport/pkg/interfaces/transport"
	"github.com/dep2p/go-sptransport/pkg/lib/log"
	"github.com/dep2p/go-sptransport/pkg/types"
)

// owner 会话所属的端点处理器
type owner interface {
	// adopt 接纳新会话，端点正在停止时返回 false
	adopt(s *session) bool
	// forget 移除会话
	forget(s *session)
}

// session 一端的会话，只在所属端点的上下文内访问
type session struct {
	owner owner
	ep    itf.Endpoint
	p     *pipe.Pipe
	rx    *lane
	tx    *lane
	peer  *session

	accepted bool
	started  bool
	stopped  bool
}

var _ itf.PipeHandler = (*session)(nil)

func newSession(o owner, ep itf.Endpoint, rx, tx *lane, accepted bool) *session {
	return &session{owner: o, ep: ep, rx: rx, tx: tx, accepted: accepted}
}

// post 提交到本会话所属上下文
func (s *session) post(fn func()) {
	s.ep.Context().Post(fn)
}

// start 在所属上下文内启动管道
func (s *session) start() {
	if s.stopped {
		return
	}
	if !s.owner.adopt(s) {
		s.abort()
		return
	}

	s.p = pipe.New(s.ep, s)
	if err := s.p.Start(); err != nil {
		logger.Debug("会话管道启动失败", "endpoint", log.ShortID(s.ep.ID()), "error", err)
		s.p.Term()
		s.owner.forget(s)
		s.incr(types.StatDroppedConnections, 1)
		s.abort()
		return
	}
	s.started = true

	if s.accepted {
		s.incr(types.StatAcceptedConnections, 1)
	} else {
		s.incr(types.StatEstablishedConnections, 1)
	}
	s.incr(types.StatCurrentConnections, 1)
	logger.Debug("会话已建立", "endpoint", log.ShortID(s.ep.ID()), "pipe", log.ShortID(s.p.ID()))
}

// abort 放弃尚未启动的会话并通知对端
func (s *session) abort() {
	s.stopped = true
	s.rx.close()
	peer := s.peer
	peer.post(peer.detach)
}

// stop 停止会话，由本端发起
func (s *session) stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	if s.p != nil {
		s.p.Stop()
		s.p.Term()
	}
	if n := s.rx.close(); n > 0 {
		logger.Debug("丢弃未读消息", "endpoint", log.ShortID(s.ep.ID()), "count", n)
	}
	if s.started {
		s.incr(types.StatCurrentConnections, -1)
	}
}

// detach 对端已离开
func (s *session) detach() {
	if s.stopped {
		return
	}
	wasStarted := s.started
	s.stop()
	s.owner.forget(s)
	if wasStarted {
		s.incr(types.StatBrokenConnections, 1)
	}
	logger.Debug("对端断开", "endpoint", log.ShortID(s.ep.ID()))
}

// received 对端写入了新消息
func (s *session) received() {
	if s.stopped || s.p == nil {
		return
	}
	s.p.Received()
}

// sent 对端取走消息，队列有空位
func (s *session) sent() {
	if s.stopped || s.p == nil {
		return
	}
	s.p.Sent()
}

// Send 实现 transport.PipeHandler
func (s *session) Send(msg *types.Message) (types.Flags, error) {
	wakeReader, full, err := s.tx.push(msg)
	if err != nil {
		return 0, err
	}
	if wakeReader {
		peer := s.peer
		peer.post(peer.received)
	}
	if !full {
		s.p.Sent()
	}
	return 0, nil
}

// Recv 实现 transport.PipeHandler
func (s *session) Recv() (*types.Message, types.Flags, error) {
	msg, more, wakeWriter := s.rx.pop()
	runtimex.Assert(msg != nil)

	if wakeWriter {
		peer := s.peer
		peer.post(peer.sent)
	}
	if more {
		s.p.Received()
	}
	return msg, types.FlagParsed, nil
}

func (s *session) incr(name types.Stat, delta int64) {
	if err := s.ep.IncrementStat(name, delta); err != nil {
		logger.Warn("统计更新失败", "stat", name, "error", err)
	}
}

// ============================================================================
//                              会话集合
// ============================================================================

// sessions 端点处理器共用的会话集合，只在端点上下文内访问
type sessions struct {
	set      map[*session]struct{}
	stopping bool
}

func (ss *sessions) adopt(s *session) bool {
	if ss.stopping {
		return false
	}
	if ss.set == nil {
		ss.set = make(map[*session]struct{})
	}
	ss.set[s] = struct{}{}
	return true
}

func (ss *sessions) forget(s *session) {
	delete(ss.set, s)
}

// stopAll 停止全部会话并通知对端
func (ss *sessions) stopAll() {
	ss.stopping = true
	for s := range ss.set {
		s.stop()
		peer := s.peer
		peer.post(peer.detach)
	}
	ss.set = nil
}

func (ss *sessions) len() int {
	return len(ss.set)
}
