package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/go-sptransport/pkg/types"
)

// Collector 将所有套接字的统计导出为 Prometheus 指标
type Collector struct {
	namespace string

	mu    sync.RWMutex
	stats map[string]*Stats

	descs    map[types.Stat]*prometheus.Desc
	rateDesc *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector 创建收集器
func NewCollector(namespace string) *Collector {
	c := &Collector{
		namespace: namespace,
		stats:     make(map[string]*Stats),
		descs:     make(map[types.Stat]*prometheus.Desc),
	}
	for _, st := range types.AllStats() {
		name := prometheus.BuildFQName(namespace, "socket", st.String())
		if st.Kind() == types.StatKindCounter {
			name += "_total"
		}
		c.descs[st] = prometheus.NewDesc(name, "socket statistic "+st.String(), []string{"socket"}, nil)
	}
	c.rateDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "socket", "byte_rate"),
		"average bytes per second over the last minute",
		[]string{"socket", "direction"}, nil,
	)
	return c
}

// Register 登记套接字统计
func (c *Collector) Register(s *Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats[s.SocketID()] = s
}

// Unregister 注销套接字统计
func (c *Collector) Unregister(socketID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.stats, socketID)
}

// Len 返回已登记的套接字数
func (c *Collector) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.stats)
}

// Describe 实现 prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d
	}
	ch <- c.rateDesc
}

// Collect 实现 prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	all := make([]*Stats, 0, len(c.stats))
	for _, s := range c.stats {
		all = append(all, s)
	}
	c.mu.RUnlock()

	for _, s := range all {
		snap := s.Snapshot()
		for st, v := range snap.Values {
			vt := prometheus.GaugeValue
			if st.Kind() == types.StatKindCounter {
				vt = prometheus.CounterValue
			}
			ch <- prometheus.MustNewConstMetric(c.descs[st], vt, float64(v), snap.SocketID)
		}
		ch <- prometheus.MustNewConstMetric(c.rateDesc, prometheus.GaugeValue, snap.RateIn, snap.SocketID, "in")
		ch <- prometheus.MustNewConstMetric(c.rateDesc, prometheus.GaugeValue, snap.RateOut, snap.SocketID, "out")
	}
}
