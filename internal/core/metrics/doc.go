// Package metrics 提供套接字统计
//
// 每个套接字持有一个 Stats，端点与管道通过 Endpoint.IncrementStat
// 间接更新它。计数器分两类：
//
//   - 计数器（1xx、3xx）：单调递增，负增量返回 ErrNegativeIncrement
//   - 状态量（2xx、4xx）：允许负增量，但结果不得小于零（ErrGaugeUnderflow）
//
// 只有监控子系统可以通过 Reset 清零。
//
// # 快速开始
//
//	stats := metrics.NewStats("sock-1")
//	_ = stats.Increment(types.StatMessagesSent, 1)
//	_ = stats.Increment(types.StatBytesSent, 128)
//
//	snap := stats.Snapshot()
//	fmt.Println(snap.Values[types.StatBytesSent], snap.RateOut)
//
// # Prometheus
//
// Collector 汇总所有已注册套接字的 Stats，以 socket 标签导出：
//
//	c := metrics.NewCollector("sp")
//	c.Register(stats)
//	prometheus.MustRegister(c)
package metrics
