package config

import (
	"errors"
	"time"
)

// SocketConfig 套接字默认选项
//
// 新建套接字从这里初始化 SOL_SOCKET 级选项表，之后可通过选项接口单独修改。
type SocketConfig struct {
	// Linger 关闭时等待未发送消息的时长，0 表示立即丢弃
	Linger Duration `json:"linger"`

	// SndBuf / RcvBuf 发送/接收缓冲区大小（字节）
	SndBuf int `json:"snd_buf"`
	RcvBuf int `json:"rcv_buf"`

	// SndPrio / RcvPrio 新端点的优先级，1 最高，16 最低
	SndPrio int `json:"snd_prio"`
	RcvPrio int `json:"rcv_prio"`

	// IPv4Only 仅使用 IPv4 地址
	IPv4Only bool `json:"ipv4_only"`

	// ReconnectIvl 连接断开后的首次重连间隔
	ReconnectIvl Duration `json:"reconnect_ivl"`

	// ReconnectIvlMax 重连间隔上限，0 表示不做指数退避
	ReconnectIvlMax Duration `json:"reconnect_ivl_max"`

	// RcvMaxSize 允许接收的最大消息，-1 表示只受传输自身上限约束
	RcvMaxSize int `json:"rcv_max_size"`
}

// DefaultSocketConfig 返回默认套接字配置
func DefaultSocketConfig() SocketConfig {
	return SocketConfig{
		Linger:          Duration(time.Second),
		SndBuf:          128 * 1024,
		RcvBuf:          128 * 1024,
		SndPrio:         8,
		RcvPrio:         8,
		IPv4Only:        true,
		ReconnectIvl:    Duration(100 * time.Millisecond),
		ReconnectIvlMax: 0,
		RcvMaxSize:      1024 * 1024,
	}
}

// Validate 验证套接字配置
func (c SocketConfig) Validate() error {
	if c.Linger < 0 {
		return errors.New("socket linger must be non-negative")
	}
	if c.SndBuf <= 0 || c.RcvBuf <= 0 {
		return errors.New("socket buffers must be positive")
	}
	if c.SndPrio < 1 || c.SndPrio > 16 {
		return errors.New("snd_prio must be within [1, 16]")
	}
	if c.RcvPrio < 1 || c.RcvPrio > 16 {
		return errors.New("rcv_prio must be within [1, 16]")
	}
	if c.ReconnectIvl < 0 || c.ReconnectIvlMax < 0 {
		return errors.New("reconnect intervals must be non-negative")
	}
	if c.RcvMaxSize < -1 {
		return errors.New("rcv_max_size must be -1 or non-negative")
	}
	return nil
}
