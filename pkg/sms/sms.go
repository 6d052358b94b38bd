// Package sms 提供短信发送能力（阿里云 Dysmsapi），用于日结汇总通知店主。
package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	dysmsapi "github.com/alibabacloud-go/dysmsapi-20170525/v3/client"
	"github.com/alibabacloud-go/tea/tea"
)

// Sender 短信发送接口
type Sender interface {
	// Send 按模板发送短信，params 为模板变量
	Send(ctx context.Context, phone, templateID string, params map[string]string) error
}

// Config 阿里云短信配置
type Config struct {
	AccessKeyID     string
	AccessKeySecret string
	SignName        string
	Endpoint        string
}

// AliyunSender 阿里云短信发送器
type AliyunSender struct {
	client   *dysmsapi.Client
	signName string
}

// NewAliyunSender 创建阿里云短信发送器
func NewAliyunSender(cfg *Config) (*AliyunSender, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "dysmsapi.aliyuncs.com"
	}

	openapiCfg := &openapi.Config{
		AccessKeyId:     tea.String(cfg.AccessKeyID),
		AccessKeySecret: tea.String(cfg.AccessKeySecret),
		Endpoint:        tea.String(endpoint),
	}

	client, err := dysmsapi.NewClient(openapiCfg)
	if err != nil {
		return nil, fmt.Errorf("create sms client: %w", err)
	}

	return &AliyunSender{
		client:   client,
		signName: cfg.SignName,
	}, nil
}

// Send 发送模板短信
func (s *AliyunSender) Send(ctx context.Context, phone, templateID string, params map[string]string) error {
	paramJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal sms params: %w", err)
	}

	req := &dysmsapi.SendSmsRequest{
		PhoneNumbers:  tea.String(phone),
		SignName:      tea.String(s.signName),
		TemplateCode:  tea.String(templateID),
		TemplateParam: tea.String(string(paramJSON)),
	}

	resp, err := s.client.SendSms(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}

	if resp.Body == nil || tea.StringValue(resp.Body.Code) != "OK" {
		code := ""
		message := ""
		if resp.Body != nil {
			code = tea.StringValue(resp.Body.Code)
			message = tea.StringValue(resp.Body.Message)
		}
		return fmt.Errorf("send sms failed: code=%s message=%s", code, message)
	}

	return nil
}

// Message 记录一条已发送短信（测试用）
type Message struct {
	Phone      string
	TemplateID string
	Params     map[string]string
}

// MockSender 短信发送 Mock，记录发送内容供测试断言
type MockSender struct {
	mu       sync.Mutex
	Messages []Message
	SendErr  error
}

// NewMockSender 创建 Mock 发送器
func NewMockSender() *MockSender {
	return &MockSender{}
}

// Send 记录短信而不真正发送
func (m *MockSender) Send(_ context.Context, phone, templateID string, params map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SendErr != nil {
		return m.SendErr
	}

	m.Messages = append(m.Messages, Message{
		Phone:      phone,
		TemplateID: templateID,
		Params:     params,
	})
	return nil
}

// LastMessage 返回最近一条记录的短信，没有则返回 nil
func (m *MockSender) LastMessage() *Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Messages) == 0 {
		return nil
	}
	return &m.Messages[len(m.Messages)-1]
}

// Count 返回已记录的短信条数
func (m *MockSender) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Messages)
}
