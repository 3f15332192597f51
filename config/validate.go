package config

import (
	"errors"
	"fmt"
)

var errNilConfig = errors.New("config is nil")

// ValidateAll 验证整个配置的有效性
func ValidateAll(c *Config) error {
	if c == nil {
		return errNilConfig
	}
	return c.Validate()
}

// ValidateAndFix 验证配置并尝试自动修复常见问题
//
// 可修复的问题：
//   - 重连间隔上限小于初始间隔 -> 关闭退避
//   - 未启用任何传输 -> 启用 inproc
//   - 优先级越界 -> 使用默认值
func ValidateAndFix(c *Config) (*Config, error) {
	if c == nil {
		return NewConfig(), nil
	}

	def := DefaultSocketConfig()
	if c.Socket.ReconnectIvlMax != 0 && c.Socket.ReconnectIvlMax < c.Socket.ReconnectIvl {
		c.Socket.ReconnectIvlMax = 0
	}
	if c.Socket.SndPrio < 1 || c.Socket.SndPrio > 16 {
		c.Socket.SndPrio = def.SndPrio
	}
	if c.Socket.RcvPrio < 1 || c.Socket.RcvPrio > 16 {
		c.Socket.RcvPrio = def.RcvPrio
	}

	if !c.Transport.EnableTCP && !c.Transport.EnableInproc {
		c.Transport.EnableInproc = true
		if c.Transport.Inproc.QueueDepth <= 0 {
			c.Transport.Inproc.QueueDepth = DefaultTransportConfig().Inproc.QueueDepth
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed after fixes: %w", err)
	}
	return c, nil
}

// MustValidate 验证配置，如果失败则 panic
//
// 仅用于初始化阶段或测试代码。
func MustValidate(c *Config) {
	if err := ValidateAll(c); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}
}
