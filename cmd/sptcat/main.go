// Package main 提供 sptcat 命令行工具
//
// sptcat 创建一个 SP 套接字，绑定或连接到给定地址，然后发送或接收消息。
//
//	sptcat -type pull -bind tcp://*:5555
//	sptcat -type push -connect tcp://127.0.0.1:5555 -data hello
//	sptcat -type push -connect tcp://127.0.0.1:5555 -stdin
//	sptcat -type req -connect inproc://x -data ping -recv 1
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dep2p/go-sptransport"
	"github.com/dep2p/go-sptransport/config"
	"github.com/dep2p/go-sptransport/pkg/lib/log"
	"github.com/dep2p/go-sptransport/pkg/types"
)

var logger = log.Logger("sptcat")

var (
	// ─────────────────────────────────────────────────────────────────────
	// 套接字
	// ─────────────────────────────────────────────────────────────────────
	sockType = flag.String("type", "pair", "套接字类型 (pair/pub/sub/req/rep/push/pull/surveyor/respondent/bus)")
	bindAddr = flag.String("bind", "", "绑定地址，多个用逗号分隔")
	connAddr = flag.String("connect", "", "连接地址，多个用逗号分隔")

	// ─────────────────────────────────────────────────────────────────────
	// 收发
	// ─────────────────────────────────────────────────────────────────────
	data      = flag.String("data", "", "发送一条消息")
	fromStdin = flag.Bool("stdin", false, "逐行发送标准输入")
	recvCount = flag.Int("recv", -1, "接收的消息数（0 = 直到中断；默认不发送时一直接收）")
	timeout   = flag.Duration("timeout", 10*time.Second, "单次发送超时")

	// ─────────────────────────────────────────────────────────────────────
	// 配置与日志
	// ─────────────────────────────────────────────────────────────────────
	configFile = flag.String("config", "", "配置文件路径")
	logLevel   = flag.String("log-level", "", "日志级别 (debug/info/warn/error)")
	logJSON    = flag.Bool("log-json", false, "以 JSON 格式输出日志")

	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(sptransport.VersionInfo())
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}
	if err := setupLogging(cfg.Log); err != nil {
		return err
	}

	st, err := types.ParseSocketType(*sockType)
	if err != nil {
		return err
	}
	binds, connects := splitList(*bindAddr), splitList(*connAddr)
	if len(binds) == 0 && len(connects) == 0 {
		return errors.New("需要 -bind 或 -connect")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lib, err := sptransport.New(sptransport.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lib.Close(closeCtx); err != nil {
			logger.Warn("关闭失败", "error", err)
		}
	}()

	s, err := lib.Socket(st)
	if err != nil {
		return err
	}
	for _, addr := range binds {
		if _, err := s.Bind(addr); err != nil {
			return fmt.Errorf("绑定 %s: %w", addr, err)
		}
		logger.Info("已绑定", "addr", addr)
	}
	for _, addr := range connects {
		if _, err := s.Connect(addr); err != nil {
			return fmt.Errorf("连接 %s: %w", addr, err)
		}
		logger.Info("已连接", "addr", addr)
	}

	sending := *data != "" || *fromStdin
	if *data != "" {
		if err := send(ctx, s, []byte(*data)); err != nil {
			return err
		}
	}
	if *fromStdin {
		if err := sendLines(ctx, s, os.Stdin); err != nil {
			return err
		}
	}

	n := *recvCount
	if n < 0 {
		if sending {
			return nil
		}
		n = 0
	}
	return receive(ctx, s, n, os.Stdout)
}

// loadConfig 加载配置文件并应用命令行覆盖
func loadConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if *configFile != "" {
		raw, err := os.ReadFile(*configFile)
		if err != nil {
			return nil, err
		}
		if cfg, err = config.FromJSON(raw); err != nil {
			return nil, err
		}
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logJSON {
		cfg.Log.Format = "json"
	}
	return cfg, cfg.Validate()
}

func setupLogging(lc config.LogConfig) error {
	level, err := log.ParseLevel(lc.Level)
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		log.SetDefault(log.NewJSON(os.Stderr, opts))
		return nil
	}
	log.SetOutputWithLevel(os.Stderr, level)
	return nil
}

func send(ctx context.Context, s *sptransport.Socket, body []byte) error {
	sctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	if err := s.SendContext(sctx, types.NewMessage(body)); err != nil {
		return fmt.Errorf("发送失败: %w", err)
	}
	logger.Debug("已发送", "bytes", len(body))
	return nil
}

func sendLines(ctx context.Context, s *sptransport.Socket, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if err := send(ctx, s, append([]byte(nil), sc.Bytes()...)); err != nil {
			return err
		}
	}
	return sc.Err()
}

// receive 接收 n 条消息，n 为 0 时直到 ctx 结束
func receive(ctx context.Context, s *sptransport.Socket, n int, w io.Writer) error {
	for i := 0; n == 0 || i < n; i++ {
		msg, err := s.RecvContext(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", msg.Body); err != nil {
			return err
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
