// Package config 提供统一的配置管理
//
// 主 Config 结构体嵌入所有子配置，每个子配置在独立文件中定义，
// 支持从 JSON 加载和保存。
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Socket.Linger = config.Duration(500 * time.Millisecond)
//	cfg.Transport.TCP.NoDelay = true
//
//	// 从 JSON 加载
//	cfg, err := config.FromJSON(data)
package config

// Config 是 SP 传输库的完整配置结构
//
// 配置按照功能模块组织：
//   - Socket: 新建套接字的默认选项
//   - Transport: 启用的传输及其参数
//   - Metrics: 统计导出
//   - Log: 日志输出
type Config struct {
	// Socket 套接字默认选项
	Socket SocketConfig `json:"socket"`

	// Transport 传输层配置
	Transport TransportConfig `json:"transport"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`

	// Log 日志配置
	Log LogConfig `json:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Socket:    DefaultSocketConfig(),
		Transport: DefaultTransportConfig(),
		Metrics:   DefaultMetricsConfig(),
		Log:       DefaultLogConfig(),
	}
}

// Validate 验证配置的有效性
//
// 检查所有子配置，返回遇到的第一个错误。
func (c *Config) Validate() error {
	if err := c.Socket.Validate(); err != nil {
		return err
	}
	if err := c.Transport.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return nil
}
