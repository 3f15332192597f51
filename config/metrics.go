package config

import (
	"errors"
	"regexp"
)

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enabled 是否向 Prometheus 注册收集器
	Enabled bool `json:"enabled"`

	// Namespace 指标名前缀
	Namespace string `json:"namespace"`
}

var namespacePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "sp",
	}
}

// Validate 验证指标配置
func (c MetricsConfig) Validate() error {
	if c.Enabled && !namespacePattern.MatchString(c.Namespace) {
		return errors.New("metrics namespace must be a valid prometheus identifier")
	}
	return nil
}
