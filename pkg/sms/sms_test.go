package sms

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMockSenderRecordsMessages(t *testing.T) {
	sender := NewMockSender()
	ctx := context.Background()

	err := sender.Send(ctx, "07700900123", "SMS_DAILY_SUMMARY", map[string]string{
		"date":     "2026-08-31",
		"variance": "5.20",
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, sender.Count())

	msg := sender.LastMessage()
	assert.NotNil(t, msg)
	assert.Equal(t, "07700900123", msg.Phone)
	assert.Equal(t, "SMS_DAILY_SUMMARY", msg.TemplateID)
	assert.Equal(t, "2026-08-31", msg.Params["date"])
}

func TestMockSenderLastMessageEmpty(t *testing.T) {
	sender := NewMockSender()
	assert.Nil(t, sender.LastMessage())
	assert.Equal(t, 0, sender.Count())
}

func TestMockSenderSendErr(t *testing.T) {
	sender := NewMockSender()
	sender.SendErr = errors.New("gateway down")

	err := sender.Send(context.Background(), "07700900123", "SMS_DAILY_SUMMARY", nil)
	assert.Error(t, err)
	assert.Equal(t, 0, sender.Count())
}

func TestNewAliyunSenderDefaultEndpoint(t *testing.T) {
	sender, err := NewAliyunSender(&Config{
		AccessKeyID:     "test-key",
		AccessKeySecret: "test-secret",
		SignName:        "CottageTandoori",
	})
	assert.NoError(t, err)
	assert.NotNil(t, sender)
	assert.Equal(t, "CottageTandoori", sender.signName)
}
