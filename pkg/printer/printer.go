// Package printer 提供网络小票打印机客户端（ESC/POS 原始端口 9100）。
package printer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// ErrNotConfigured 打印机未配置
var ErrNotConfigured = errors.New("printer not configured")

// Client 打印客户端接口
type Client interface {
	// Print 将渲染好的小票内容写入打印机
	Print(ctx context.Context, payload []byte) error
}

// Config 网络打印机配置
type Config struct {
	Addr    string
	Timeout time.Duration
}

// NetworkClient 网络打印机客户端
// 每次打印建立一条短连接，打印机固件不保持长连接
type NetworkClient struct {
	addr    string
	timeout time.Duration
}

// NewNetworkClient 创建网络打印机客户端
func NewNetworkClient(cfg *Config) (*NetworkClient, error) {
	if cfg == nil || cfg.Addr == "" {
		return nil, ErrNotConfigured
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NetworkClient{
		addr:    cfg.Addr,
		timeout: timeout,
	}, nil
}

// Print 写入小票内容
func (c *NetworkClient) Print(ctx context.Context, payload []byte) error {
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("connect printer %s: %w", c.addr, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set printer deadline: %w", err)
	}

	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("write printer payload: %w", err)
	}
	return nil
}

// MockClient 打印客户端 Mock，记录打印内容供测试断言
type MockClient struct {
	mu       sync.Mutex
	Payloads [][]byte
	PrintErr error
}

// NewMockClient 创建 Mock 打印客户端
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Print 记录打印内容
func (m *MockClient) Print(_ context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PrintErr != nil {
		return m.PrintErr
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	m.Payloads = append(m.Payloads, buf)
	return nil
}

// LastPayload 返回最近一次打印内容
func (m *MockClient) LastPayload() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Payloads) == 0 {
		return nil
	}
	return m.Payloads[len(m.Payloads)-1]
}

// Count 返回打印次数
func (m *MockClient) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Payloads)
}
