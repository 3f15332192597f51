package socket

import (
	"math"
	"time"

	"github.com/dep2p/go-sptransport/config"
	"github.com/dep2p/go-sptransport/internal/core/optset"
	"github.com/dep2p/go-sptransport/pkg/types"
)

// Config 新建套接字的默认选项
type Config struct {
	Linger          time.Duration
	SndBuf          int
	RcvBuf          int
	SndPrio         int
	RcvPrio         int
	IPv4Only        bool
	ReconnectIvl    time.Duration
	ReconnectIvlMax time.Duration
	RcvMaxSize      int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return ConfigFromUnified(nil)
}

// ConfigFromUnified 从统一配置创建套接字配置
func ConfigFromUnified(cfg *config.Config) Config {
	sc := config.DefaultSocketConfig()
	if cfg != nil {
		sc = cfg.Socket
	}
	return Config{
		Linger:          sc.Linger.Duration(),
		SndBuf:          sc.SndBuf,
		RcvBuf:          sc.RcvBuf,
		SndPrio:         sc.SndPrio,
		RcvPrio:         sc.RcvPrio,
		IPv4Only:        sc.IPv4Only,
		ReconnectIvl:    sc.ReconnectIvl.Duration(),
		ReconnectIvlMax: sc.ReconnectIvlMax.Duration(),
		RcvMaxSize:      sc.RcvMaxSize,
	}
}

// optionTable 创建 SOL_SOCKET 级选项表
func (c Config) optionTable(st types.SocketType) *optset.Set {
	const maxInt = math.MaxInt32
	ms := func(d time.Duration) int { return int(d / time.Millisecond) }

	return optset.New(
		optset.IntOption{ID: types.OptLinger, Name: "linger", Min: -1, Max: maxInt, Default: ms(c.Linger)},
		optset.IntOption{ID: types.OptSndBuf, Name: "sndbuf", Min: 1, Max: maxInt, Default: c.SndBuf},
		optset.IntOption{ID: types.OptRcvBuf, Name: "rcvbuf", Min: 1, Max: maxInt, Default: c.RcvBuf},
		optset.IntOption{ID: types.OptReconnectIvl, Name: "reconnect_ivl", Min: 0, Max: maxInt, Default: ms(c.ReconnectIvl)},
		optset.IntOption{ID: types.OptReconnectIvlMax, Name: "reconnect_ivl_max", Min: 0, Max: maxInt, Default: ms(c.ReconnectIvlMax)},
		optset.IntOption{ID: types.OptSndPrio, Name: "sndprio", Min: 1, Max: 16, Default: c.SndPrio},
		optset.IntOption{ID: types.OptRcvPrio, Name: "rcvprio", Min: 1, Max: 16, Default: c.RcvPrio},
		optset.IntOption{ID: types.OptProtocol, Name: "protocol", Min: 0, Max: maxInt, Default: int(st), ReadOnly: true},
		optset.Bool(types.OptIPv4Only, "ipv4only", c.IPv4Only),
		optset.IntOption{ID: types.OptRcvMaxSize, Name: "rcvmaxsize", Min: -1, Max: maxInt, Default: c.RcvMaxSize},
	)
}
