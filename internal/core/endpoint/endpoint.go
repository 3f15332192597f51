package endpoint

import (
	"fmt"

	"github.com/bassosimone/errclass"
	"github.com/bassosimone/runtimex"
	"github.com/google/uuid"

	"github.com/dep2p/go-sptransport/internal/core/optset"
	itf "github.com/dep2p/go-sptransport/pkg/interfaces/transport"
	"github.com/dep2p/go-sptransport/pkg/lib/aio"
	"github.com/dep2p/go-sptransport/pkg/lib/log"
	"github.com/dep2p/go-sptransport/pkg/types"
)

var logger = log.Logger("core/endpoint")

// ============================================================================
//                              状态
// ============================================================================

// State 端点状态
type State int

const (
	// StateCreated 已创建，尚未启动
	StateCreated State = iota
	// StateRunning 运行中
	StateRunning
	// StateStopping 已请求停止，等待处理器确认
	StateStopping
	// StateStopped 处理器已确认停止
	StateStopped
	// StateDestroyed 已销毁
	StateDestroyed
)

// String 返回状态名
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ============================================================================
//                              Endpoint
// ============================================================================

// Endpoint 端点实现
type Endpoint struct {
	id   string
	sock itf.Socket
	desc *itf.Descriptor
	addr string
	bind bool
	opts types.EndpointOptions

	handler itf.EndpointHandler
	state   State

	// errno 当前错误分类，空串表示无错误
	errno string
}

var _ itf.Endpoint = (*Endpoint)(nil)

// New 创建端点并调用传输的 Bind/Connect
//
// addr 为去掉 "<name>://" 前缀的地址。必须在套接字上下文内调用。
// 失败时端点未安装处理器，调用者应直接 Destroy。
func New(sock itf.Socket, desc *itf.Descriptor, addr string, bind bool) (*Endpoint, error) {
	e := &Endpoint{
		id:    uuid.NewString(),
		sock:  sock,
		desc:  desc,
		addr:  addr,
		bind:  bind,
		opts:  sock.EndpointOptions(),
		state: StateCreated,
	}

	var err error
	if bind {
		err = desc.Bind(e)
	} else {
		err = desc.Connect(e)
	}
	if err != nil {
		logger.Debug("传输拒绝创建端点",
			"endpoint", log.ShortID(e.id),
			"url", e.URL(),
			"bind", bind,
			"error", err)
		return e, err
	}

	if e.handler == nil {
		violation("传输成功返回但未安装处理器", "transport", desc.Name, "url", e.URL())
	}
	logger.Debug("端点已创建", "endpoint", log.ShortID(e.id), "url", e.URL(), "bind", bind)
	return e, nil
}

// ID 实现 transport.Endpoint
func (e *Endpoint) ID() string { return e.id }

// Addr 实现 transport.Endpoint
func (e *Endpoint) Addr() string { return e.addr }

// URL 返回带传输前缀的完整地址
func (e *Endpoint) URL() string { return e.desc.Name + "://" + e.addr }

// IsBind 是否为 Bind 端点
func (e *Endpoint) IsBind() bool { return e.bind }

// Transport 返回传输描述符
func (e *Endpoint) Transport() *itf.Descriptor { return e.desc }

// State 返回当前状态
func (e *Endpoint) State() State { return e.state }

// Errno 返回当前错误分类，空串表示无错误
func (e *Endpoint) Errno() string { return e.errno }

// Setup 实现 transport.Endpoint
func (e *Endpoint) Setup(h itf.EndpointHandler) {
	if e.handler != nil {
		violation("端点处理器重复安装", "endpoint", log.ShortID(e.id))
	}
	if h == nil || e.state != StateCreated {
		violation("端点处理器安装时机错误", "endpoint", log.ShortID(e.id), "state", e.state)
	}
	e.handler = h
}

// Handler 实现 transport.Endpoint
func (e *Endpoint) Handler() itf.EndpointHandler { return e.handler }

// Context 实现 transport.Endpoint
func (e *Endpoint) Context() *aio.Context { return e.sock.Context() }

// Socket 实现 transport.Endpoint
func (e *Endpoint) Socket() itf.Socket { return e.sock }

// Options 实现 transport.Endpoint
func (e *Endpoint) Options() types.EndpointOptions { return e.opts }

// ============================================================================
//                              生命周期
// ============================================================================

// Active 实现 transport.Endpoint
//
// 传输可能在 Bind/Connect 内就创建管道，因此 Created 状态也算活跃。
func (e *Endpoint) Active() bool {
	return e.state == StateCreated || e.state == StateRunning
}

// Start 启动端点
func (e *Endpoint) Start() error {
	if e.state != StateCreated || e.handler == nil {
		return itf.ErrNotStartable
	}
	e.state = StateRunning
	return nil
}

// Stop 请求停止
//
// 处理器完成后调用 Stopped。重复调用为空操作。
func (e *Endpoint) Stop() {
	switch e.state {
	case StateCreated, StateRunning:
	default:
		return
	}

	if e.handler == nil {
		e.state = StateStopped
		return
	}

	logger.Debug("端点停止中", "endpoint", log.ShortID(e.id), "url", e.URL())
	e.state = StateStopping
	e.handler.Stop()
}

// Stopped 实现 transport.Endpoint
//
// 向套接字发出 EventEndpointStopped。
func (e *Endpoint) Stopped() {
	if e.state != StateStopping {
		violation("端点未在停止中却收到停止确认", "endpoint", log.ShortID(e.id), "state", e.state)
	}
	e.state = StateStopped
	e.Context().Raise(e.sock, e, itf.EventEndpointStopped)
	logger.Debug("端点已停止", "endpoint", log.ShortID(e.id))
}

// Destroy 销毁端点，只能在停止完成或从未安装处理器时调用
func (e *Endpoint) Destroy() {
	unsetup := e.state == StateCreated && e.handler == nil
	if e.state != StateStopped && !unsetup {
		violation("销毁未停止的端点", "endpoint", log.ShortID(e.id), "state", e.state)
	}
	if e.handler != nil {
		e.handler.Destroy()
	}
	e.Context().Purge(e)
	e.state = StateDestroyed
}

// ============================================================================
//                              选项与对端
// ============================================================================

// GetOption 实现 transport.Endpoint
//
// 只能读取套接字层级和本端点所属传输层级的选项。
func (e *Endpoint) GetOption(level types.OptionLevel, option int, buf []byte) (int, error) {
	if level != types.LevelSocket && level != types.TransportLevel(e.desc.ID) {
		return 0, itf.ErrOptionNotFound
	}
	return e.sock.GetOption(level, option, buf)
}

// GetIntOption 实现 transport.Endpoint
func (e *Endpoint) GetIntOption(level types.OptionLevel, option int) (int, error) {
	buf := make([]byte, optset.IntSize)
	n, err := e.GetOption(level, option, buf)
	if err != nil {
		return 0, err
	}
	return optset.DecodeInt(buf[:n])
}

// IsPeer 实现 transport.Endpoint
func (e *Endpoint) IsPeer(st types.SocketType) bool {
	return e.sock.IsPeer(st)
}

// IsPeerOf 实现 transport.Endpoint
//
// 双方都接受对方的套接字类型才算兼容。
func (e *Endpoint) IsPeerOf(other itf.Endpoint) bool {
	return e.IsPeer(other.Socket().Type()) && other.IsPeer(e.sock.Type())
}

// ============================================================================
//                              错误状态
// ============================================================================

// SetError 实现 transport.Endpoint
//
// 错误按 errclass 分类；分类相同的重复设置为空操作。nil 等价于 ClearError。
func (e *Endpoint) SetError(err error) {
	if err == nil {
		e.ClearError()
		return
	}
	errno := errclass.New(err)
	if errno == e.errno {
		return
	}

	if e.errno == "" {
		if ierr := e.sock.IncrementStat(types.StatCurrentEPErrors, 1); ierr != nil {
			logger.Warn("更新端点错误计数失败", "endpoint", log.ShortID(e.id), "error", ierr)
		}
	}
	logger.Warn("端点错误", "endpoint", log.ShortID(e.id), "url", e.URL(), "errno", errno, "error", err)
	e.errno = errno
	e.sock.ReportError(e, errno)
}

// ClearError 实现 transport.Endpoint
func (e *Endpoint) ClearError() {
	if e.errno == "" {
		return
	}
	if ierr := e.sock.IncrementStat(types.StatCurrentEPErrors, -1); ierr != nil {
		logger.Warn("更新端点错误计数失败", "endpoint", log.ShortID(e.id), "error", ierr)
	}
	logger.Debug("端点错误已清除", "endpoint", log.ShortID(e.id), "errno", e.errno)
	e.errno = ""
	e.sock.ReportError(e, "")
}

// IncrementStat 实现 transport.Endpoint
func (e *Endpoint) IncrementStat(name types.Stat, delta int64) error {
	return e.sock.IncrementStat(name, delta)
}

// violation 记录协议违例并终止
func violation(msg string, args ...any) {
	logger.Error(msg, args...)
	runtimex.Assert(false)
}
