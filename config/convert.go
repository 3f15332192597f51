package config

import (
	"encoding/json"
	"fmt"
)

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保留默认值。
//
// 示例 JSON:
//
//	{
//	  "socket": {"linger": "500ms", "snd_prio": 4},
//	  "transport": {"enable_tcp": true, "tcp": {"no_delay": true}}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// ToJSON 将配置序列化为带缩进的 JSON
func ToJSON(cfg *Config) ([]byte, error) {
	if cfg == nil {
		return nil, errNilConfig
	}
	return json.MarshalIndent(cfg, "", "  ")
}

// CloneConfig 克隆配置
//
// 所有子配置都是值类型，浅拷贝即深拷贝。
func CloneConfig(cfg *Config) *Config {
	if cfg == nil {
		return nil
	}
	cloned := *cfg
	return &cloned
}
