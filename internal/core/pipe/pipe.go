package pipe

import (
	"fmt"

	"github.com/bassosimone/runtimex"
	"github.com/google/uuid"

	"github.com/dep2p/go-sptransport/internal/core/optset"
	itf "github.com/dep2p/go-sptransport/pkg/interfaces/transport"
	"github.com/dep2p/go-sptransport/pkg/lib/log"
	"github.com/dep2p/go-sptransport/pkg/types"
)

var logger = log.Logger("core/pipe")

// ============================================================================
//                              状态
// ============================================================================

// State 管道总体状态
type State int

const (
	// StateInit 已创建，尚未启动
	StateInit State = iota
	// StateActive 已启动，可以收发
	StateActive
	// StateFailed 套接字拒绝注册
	StateFailed
	// StateStopped 已停止
	StateStopped
	// StateTerminated 已释放
	StateTerminated
)

// String 返回状态名
func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateActive:
		return "active"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DirState 单个方向的子状态
type DirState int

const (
	// DirDeactivated 管道未启动或已停止
	DirDeactivated DirState = iota
	// DirReady 套接字可以调用该方向
	DirReady
	// DirBusy 处理器的 Send/Recv 正在执行
	DirBusy
	// DirDone 处理器在 Send/Recv 返回前已完成
	DirDone
	// DirReleased 等待处理器重新就绪
	DirReleased
)

// String 返回子状态名
func (d DirState) String() string {
	switch d {
	case DirDeactivated:
		return "deactivated"
	case DirReady:
		return "ready"
	case DirBusy:
		return "busy"
	case DirDone:
		return "done"
	case DirReleased:
		return "released"
	default:
		return fmt.Sprintf("dir(%d)", int(d))
	}
}

// ============================================================================
//                              Pipe
// ============================================================================

// Pipe 管道实现
type Pipe struct {
	id      string
	ep      itf.Endpoint
	sock    itf.Socket
	handler itf.PipeHandler
	opts    types.EndpointOptions

	state    State
	instate  DirState
	outstate DirState
}

var _ itf.Pipe = (*Pipe)(nil)

// New 创建管道，从端点复制选项
func New(ep itf.Endpoint, h itf.PipeHandler) *Pipe {
	runtimex.Assert(ep != nil && h != nil)
	return &Pipe{
		id:      uuid.NewString(),
		ep:      ep,
		sock:    ep.Socket(),
		handler: h,
		opts:    ep.Options(),
		state:   StateInit,
	}
}

// ID 实现 transport.Pipe
func (p *Pipe) ID() string { return p.id }

// Endpoint 实现 transport.Pipe
func (p *Pipe) Endpoint() itf.Endpoint { return p.ep }

// Options 实现 transport.Pipe
func (p *Pipe) Options() types.EndpointOptions { return p.opts }

// State 返回总体状态
func (p *Pipe) State() State { return p.state }

// InState 返回接收方向子状态
func (p *Pipe) InState() DirState { return p.instate }

// OutState 返回发送方向子状态
func (p *Pipe) OutState() DirState { return p.outstate }

// ============================================================================
//                              生命周期
// ============================================================================

// Start 启动管道并注册到套接字
//
// 端点已开始停止或管道不在 Init 状态时返回 ErrNotStartable。
// 套接字拒绝注册时管道进入 Failed 并返回该错误。成功后发送方向立即
// 就绪（发出 EventPipeOut），接收方向等待处理器第一次调用 Received。
func (p *Pipe) Start() error {
	if p.state != StateInit || !p.ep.Active() {
		return itf.ErrNotStartable
	}

	p.state = StateActive
	p.instate = DirReleased
	p.outstate = DirReady

	if err := p.sock.AddPipe(p); err != nil {
		logger.Debug("套接字拒绝管道", "pipe", log.ShortID(p.id), "error", err)
		p.state = StateFailed
		p.instate = DirDeactivated
		p.outstate = DirDeactivated
		return err
	}

	p.ep.Context().Raise(p.sock, p, itf.EventPipeOut)
	logger.Debug("管道已启动", "pipe", log.ShortID(p.id), "endpoint", log.ShortID(p.ep.ID()))
	return nil
}

// Stop 停止管道
//
// 未完成的收发被放弃：此后到达的 Sent/Received 被忽略，
// 尚未投递的本管道事件被丢弃。重复调用为空操作。
func (p *Pipe) Stop() {
	switch p.state {
	case StateActive:
		p.sock.RemovePipe(p)
	case StateInit, StateFailed:
	default:
		return
	}

	p.state = StateStopped
	p.instate = DirDeactivated
	p.outstate = DirDeactivated
	if n := p.ep.Context().Purge(p); n > 0 {
		logger.Debug("丢弃已停止管道的待投递事件", "pipe", log.ShortID(p.id), "count", n)
	}
	logger.Debug("管道已停止", "pipe", log.ShortID(p.id))
}

// Term 释放管道，必须先停止
func (p *Pipe) Term() {
	switch p.state {
	case StateActive:
		violation("释放未停止的管道", "pipe", log.ShortID(p.id))
	case StateTerminated:
		return
	}
	p.state = StateTerminated
}

// ============================================================================
//                              完成通知
// ============================================================================

// Received 处理器通知一条消息已完整接收
//
// 在 Recv 调用内部调用表示同步完成；否则接收方向从 Released 恢复就绪。
func (p *Pipe) Received() {
	if p.state != StateActive {
		logger.Debug("忽略已停止管道的接收通知", "pipe", log.ShortID(p.id), "state", p.state)
		return
	}
	switch p.instate {
	case DirBusy:
		p.instate = DirDone
	case DirReleased:
		p.instate = DirReady
		p.ep.Context().Raise(p.sock, p, itf.EventPipeIn)
	default:
		violation("接收方向未释放却重新就绪", "pipe", log.ShortID(p.id), "instate", p.instate)
	}
}

// Sent 处理器通知一条消息已完整发送
func (p *Pipe) Sent() {
	if p.state != StateActive {
		logger.Debug("忽略已停止管道的发送通知", "pipe", log.ShortID(p.id), "state", p.state)
		return
	}
	switch p.outstate {
	case DirBusy:
		p.outstate = DirDone
	case DirReleased:
		p.outstate = DirReady
		p.ep.Context().Raise(p.sock, p, itf.EventPipeOut)
	default:
		violation("发送方向未释放却重新就绪", "pipe", log.ShortID(p.id), "outstate", p.outstate)
	}
}

// ============================================================================
//                              收发
// ============================================================================

// Send 实现 transport.Pipe
//
// 返回值包含 FlagRelease 时，调用者必须等待 EventPipeOut 后才能再次发送。
func (p *Pipe) Send(msg *types.Message) (types.Flags, error) {
	if p.state != StateActive || p.outstate != DirReady {
		violation("发送方向未就绪", "pipe", log.ShortID(p.id), "state", p.state, "outstate", p.outstate)
	}

	p.outstate = DirBusy
	flags, err := p.handler.Send(msg)
	if err != nil {
		logger.Warn("处理器发送失败", "pipe", log.ShortID(p.id), "error", err)
		if p.state == StateActive {
			p.outstate = DirReleased
		}
		return flags | types.FlagRelease, err
	}

	out, ok := settle(&p.outstate, flags)
	if !ok {
		violation("处理器同步完成发送后又声明释放", "pipe", log.ShortID(p.id))
	}
	return out, nil
}

// Recv 实现 transport.Pipe
//
// 返回值包含 FlagRelease 时，调用者必须等待 EventPipeIn 后才能再次接收。
func (p *Pipe) Recv() (*types.Message, types.Flags, error) {
	if p.state != StateActive || p.instate != DirReady {
		violation("接收方向未就绪", "pipe", log.ShortID(p.id), "state", p.state, "instate", p.instate)
	}

	p.instate = DirBusy
	msg, flags, err := p.handler.Recv()
	if err != nil {
		logger.Warn("处理器接收失败", "pipe", log.ShortID(p.id), "error", err)
		if p.state == StateActive {
			p.instate = DirReleased
		}
		return nil, flags | types.FlagRelease, err
	}

	out, ok := settle(&p.instate, flags)
	if !ok {
		violation("处理器同步完成接收后又声明释放", "pipe", log.ShortID(p.id))
	}
	return msg, out, nil
}

// settle 根据处理器调用后的子状态得出返回标志
//
// 同步完成：回到 Ready，不带 FlagRelease；否则进入 Released 并带上 FlagRelease。
// 同步完成且处理器显式返回 FlagRelease 时 ok 为 false。
func settle(dir *DirState, flags types.Flags) (types.Flags, bool) {
	switch *dir {
	case DirDone:
		*dir = DirReady
		return flags, !flags.Released()
	case DirBusy:
		*dir = DirReleased
		return flags | types.FlagRelease, true
	default:
		// 处理器在调用内停止了管道
		return flags | types.FlagRelease, true
	}
}

// ============================================================================
//                              选项与对端
// ============================================================================

// GetOption 实现 transport.Pipe
//
// 优先级与 IPv4Only 返回管道自己的副本，其余转发给端点。
func (p *Pipe) GetOption(level types.OptionLevel, option int, buf []byte) (int, error) {
	if level == types.LevelSocket {
		var v int
		switch option {
		case types.OptSndPrio:
			v = p.opts.SndPrio
		case types.OptRcvPrio:
			v = p.opts.RcvPrio
		case types.OptIPv4Only:
			if p.opts.IPv4Only {
				v = 1
			}
		default:
			return p.ep.GetOption(level, option, buf)
		}
		return encodeInt(buf, v)
	}
	return p.ep.GetOption(level, option, buf)
}

// IsPeer 实现 transport.Pipe
func (p *Pipe) IsPeer(st types.SocketType) bool {
	return p.ep.IsPeer(st)
}

// violation 记录协议违例并终止
func violation(msg string, args ...any) {
	logger.Error(msg, args...)
	runtimex.Assert(false)
}

func encodeInt(buf []byte, v int) (int, error) {
	if len(buf) != optset.IntSize {
		return 0, itf.ErrOptionSize
	}
	return copy(buf, optset.EncodeInt(v)), nil
}
