package metrics

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-sptransport/pkg/lib/log"
	"github.com/dep2p/go-sptransport/pkg/types"
)

var logger = log.Logger("core/metrics")

// Snapshot 统计快照
type Snapshot struct {
	SocketID string
	Time     time.Time
	Values   map[types.Stat]int64

	// RateIn / RateOut 最近 60 秒的平均收发速率（字节/秒）
	RateIn  float64
	RateOut float64
}

// Stats 单个套接字的统计
type Stats struct {
	socketID string
	clk      clock.Clock

	mu     sync.Mutex
	values map[types.Stat]int64

	rateIn  *RateMeter
	rateOut *RateMeter
}

// StatsOption Stats 选项
type StatsOption func(*Stats)

// WithStatsClock 指定时钟
func WithStatsClock(clk clock.Clock) StatsOption {
	return func(s *Stats) {
		s.clk = clk
	}
}

// NewStats 创建套接字统计
func NewStats(socketID string, opts ...StatsOption) *Stats {
	s := &Stats{
		socketID: socketID,
		clk:      clock.New(),
		values:   make(map[types.Stat]int64, len(types.AllStats())),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, st := range types.AllStats() {
		s.values[st] = 0
	}
	s.rateIn = NewRateMeter(s.clk)
	s.rateOut = NewRateMeter(s.clk)
	return s
}

// SocketID 返回所属套接字 ID
func (s *Stats) SocketID() string {
	return s.socketID
}

// Increment 增加计数器
//
// 单调计数器拒绝负增量；状态量不得小于零。失败时计数器不变。
// StatCurrentSndPriority 是属性值，delta 直接作为新值写入。
func (s *Stats) Increment(name types.Stat, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.values[name]
	if !ok {
		return ErrUnknownStat
	}

	if name == types.StatCurrentSndPriority {
		s.values[name] = delta
		return nil
	}

	switch name.Kind() {
	case types.StatKindCounter:
		if delta < 0 {
			logger.Warn("单调计数器收到负增量", "socket", s.socketID, "stat", name, "delta", delta)
			return ErrNegativeIncrement
		}
	case types.StatKindGauge:
		if cur+delta < 0 {
			logger.Warn("状态量下溢", "socket", s.socketID, "stat", name, "value", cur, "delta", delta)
			return ErrGaugeUnderflow
		}
	}
	s.values[name] = cur + delta

	switch name {
	case types.StatBytesSent:
		s.rateOut.Add(delta)
	case types.StatBytesReceived:
		s.rateIn.Add(delta)
	}
	return nil
}

// Get 读取计数器当前值
func (s *Stats) Get(name types.Stat) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[name]
}

// Snapshot 返回当前快照
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	values := make(map[types.Stat]int64, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}
	s.mu.Unlock()

	return Snapshot{
		SocketID: s.socketID,
		Time:     s.clk.Now(),
		Values:   values,
		RateIn:   s.rateIn.Rate(),
		RateOut:  s.rateOut.Rate(),
	}
}

// Reset 清零所有计数器（仅供监控子系统使用）
func (s *Stats) Reset() {
	s.mu.Lock()
	for k := range s.values {
		s.values[k] = 0
	}
	s.mu.Unlock()

	s.rateIn.Reset()
	s.rateOut.Reset()
	logger.Debug("统计已重置", "socket", s.socketID)
}
