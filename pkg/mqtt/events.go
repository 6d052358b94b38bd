package mqtt

import (
	"encoding/json"
	"strings"
	"time"
)

// 事件类型
const (
	EventReportFinalized = "report.finalized"
	EventDrawerOperation = "drawer.operation"
	EventOrderCompleted  = "order.completed"
	EventOrderRefunded   = "order.refunded"
)

// Publisher 业务事件发布器
// 面向厨房显示屏和后台看板广播 POS 事件，发布失败不阻塞主流程
type Publisher struct {
	client      *Client
	topicPrefix string
	source      string
}

// NewPublisher 创建事件发布器
func NewPublisher(client *Client, topicPrefix, source string) *Publisher {
	if !strings.HasSuffix(topicPrefix, "/") {
		topicPrefix += "/"
	}
	return &Publisher{
		client:      client,
		topicPrefix: topicPrefix,
		source:      source,
	}
}

// Topic 构建事件主题
func (p *Publisher) Topic(eventType string) string {
	return p.topicPrefix + strings.ReplaceAll(eventType, ".", "/")
}

// PublishEvent 发布业务事件
func (p *Publisher) PublishEvent(eventType string, data interface{}) error {
	if p.client == nil || !p.client.IsConnected() {
		return ErrNotConnected
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	msg := Message{
		Source:    p.source,
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Data:      raw,
	}
	return p.client.Publish(p.Topic(eventType), msg)
}
