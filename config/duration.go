package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration 是支持 JSON 字符串解析的 time.Duration 包装类型
//
// 支持的格式:
//   - 字符串: "100ms", "1s", "1m30s"
//   - 数字: 毫秒数，与套接字选项的整数单位一致
//
// 使用示例:
//
//	// JSON: {"linger": "1s"} 或 {"linger": 1000}
type Duration time.Duration

// UnmarshalJSON 实现 json.Unmarshaler 接口
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration string %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}

	var ms int64
	if err := json.Unmarshal(data, &ms); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	return fmt.Errorf("duration must be a string (e.g., \"100ms\") or number of milliseconds")
}

// MarshalJSON 实现 json.Marshaler 接口，输出为字符串格式
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Duration 返回底层的 time.Duration 值
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Milliseconds 返回毫秒数，用于填充整数选项
func (d Duration) Milliseconds() int {
	return int(time.Duration(d) / time.Millisecond)
}

// String 返回字符串表示
func (d Duration) String() string {
	return time.Duration(d).String()
}
