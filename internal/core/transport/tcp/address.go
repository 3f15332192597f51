package tcp

import (
	"fmt"
	"net"
	"strconv"
)

// Address TCP 地址
type Address struct {
	// Host 主机名或 IP，绑定时为空表示所有接口
	Host string
	// Port 端口号
	Port int
}

// ParseAddress 解析去掉协议前缀的地址
//
// 绑定地址的主机可以是 "*"；连接地址必须给出主机和非零端口。
func ParseAddress(s string, bind bool) (*Address, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAddress, s, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return nil, fmt.Errorf("%w: bad port %q", ErrInvalidAddress, portStr)
	}

	if host == "*" {
		if !bind {
			return nil, fmt.Errorf("%w: wildcard host in connect address", ErrInvalidAddress)
		}
		host = ""
	}
	if !bind && (host == "" || port == 0) {
		return nil, fmt.Errorf("%w: connect address needs host and port", ErrInvalidAddress)
	}
	return &Address{Host: host, Port: port}, nil
}

// Network 返回 net 包使用的网络名
func (a *Address) Network(ipv4only bool) string {
	if ipv4only {
		return "tcp4"
	}
	return "tcp"
}

// HostPort 返回 net.Dial/net.Listen 使用的地址
func (a *Address) HostPort() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// String 返回地址字符串
func (a *Address) String() string {
	if a.Host == "" {
		return "*:" + strconv.Itoa(a.Port)
	}
	return a.HostPort()
}
