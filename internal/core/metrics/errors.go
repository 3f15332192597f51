package metrics

import "errors"

var (
	// ErrNegativeIncrement 单调计数器收到负增量
	ErrNegativeIncrement = errors.New("negative increment on monotonic counter")

	// ErrGaugeUnderflow 状态量将变为负数
	ErrGaugeUnderflow = errors.New("gauge would drop below zero")

	// ErrUnknownStat 未知计数器
	ErrUnknownStat = errors.New("unknown statistic")
)
