package config

import (
	"errors"
	"time"
)

// TransportConfig 传输层配置
//
// 配置库内注册的传输：
//   - TCP: 基于 SP 头部握手与长度前缀分帧
//   - Inproc: 进程内传输
type TransportConfig struct {
	// TCP 配置
	EnableTCP bool      `json:"enable_tcp"`
	TCP       TCPConfig `json:"tcp,omitempty"`

	// Inproc 配置
	EnableInproc bool         `json:"enable_inproc"`
	Inproc       InprocConfig `json:"inproc,omitempty"`
}

// TCPConfig TCP 传输配置
type TCPConfig struct {
	// NoDelay TCP_NODELAY 选项的默认值
	NoDelay bool `json:"no_delay"`

	// DialTimeout 单次拨号超时
	DialTimeout Duration `json:"dial_timeout"`
}

// InprocConfig 进程内传输配置
type InprocConfig struct {
	// QueueDepth 每个方向缓冲的消息数
	QueueDepth int `json:"queue_depth"`
}

// DefaultTransportConfig 返回默认传输配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		EnableTCP: true,
		TCP: TCPConfig{
			NoDelay:     false,
			DialTimeout: Duration(5 * time.Second),
		},
		EnableInproc: true,
		Inproc: InprocConfig{
			QueueDepth: 16,
		},
	}
}

// Validate 验证传输配置
func (c TransportConfig) Validate() error {
	if !c.EnableTCP && !c.EnableInproc {
		return errors.New("at least one transport must be enabled")
	}
	if c.EnableTCP && c.TCP.DialTimeout <= 0 {
		return errors.New("tcp dial timeout must be positive")
	}
	if c.EnableInproc && c.Inproc.QueueDepth <= 0 {
		return errors.New("inproc queue depth must be positive")
	}
	return nil
}
