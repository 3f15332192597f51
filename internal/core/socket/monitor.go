package socket

import (
	"go.uber.org/multierr"

	"github.com/dep2p/go-sptransport/internal/core/eventbus"
	"github.com/dep2p/go-sptransport/pkg/types"
)

// monitor 监控事件发射器集合，总线为 nil 时所有操作为空
type monitor struct {
	epErr    *eventbus.Emitter[types.EvtEndpointError]
	epStop   *eventbus.Emitter[types.EvtEndpointStopped]
	attached *eventbus.Emitter[types.EvtPipeAttached]
	detached *eventbus.Emitter[types.EvtPipeDetached]
}

func newMonitor(bus *eventbus.Bus) (*monitor, error) {
	m := &monitor{}
	if bus == nil {
		return m, nil
	}

	var err, e error
	m.epErr, e = eventbus.NewEmitter[types.EvtEndpointError](bus)
	err = multierr.Append(err, e)
	m.epStop, e = eventbus.NewEmitter[types.EvtEndpointStopped](bus)
	err = multierr.Append(err, e)
	m.attached, e = eventbus.NewEmitter[types.EvtPipeAttached](bus)
	err = multierr.Append(err, e)
	m.detached, e = eventbus.NewEmitter[types.EvtPipeDetached](bus)
	err = multierr.Append(err, e)
	if err != nil {
		_ = m.close()
		return nil, err
	}
	return m, nil
}

func emit[T any](em *eventbus.Emitter[T], ev T) {
	if em == nil {
		return
	}
	if err := em.Emit(ev); err != nil {
		logger.Debug("监控事件发布失败", "error", err)
	}
}

func closeEmitter[T any](em *eventbus.Emitter[T]) error {
	if em == nil {
		return nil
	}
	return em.Close()
}

func (m *monitor) close() error {
	return multierr.Combine(
		closeEmitter(m.epErr),
		closeEmitter(m.epStop),
		closeEmitter(m.attached),
		closeEmitter(m.detached),
	)
}
