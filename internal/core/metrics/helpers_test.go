package metrics

import (
	"github.com/benbjohnson/clock"
)

// newTestStats 创建使用 mock 时钟的统计
func newTestStats(id string) (*Stats, *clock.Mock) {
	mock := clock.NewMock()
	return NewStats(id, WithStatsClock(mock)), mock
}
