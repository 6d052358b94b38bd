package printer

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNetworkClientNotConfigured(t *testing.T) {
	_, err := NewNetworkClient(nil)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewNetworkClient(&Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNetworkClientPrint(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 1024)
		n, _ := conn.Read(buf)
		received <- buf[:n]
	}()

	client, err := NewNetworkClient(&Config{Addr: ln.Addr().String(), Timeout: time.Second})
	require.NoError(t, err)

	payload := []byte("COTTAGE TANDOORI\nZ-REPORT 2026-08-31\n")
	require.NoError(t, client.Print(context.Background(), payload))

	select {
	case got := <-received:
		assert.Equal(t, payload, got)
	case <-time.After(2 * time.Second):
		t.Fatal("printer payload not received")
	}
}

func TestNetworkClientPrintConnectError(t *testing.T) {
	client, err := NewNetworkClient(&Config{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	require.NoError(t, err)

	err = client.Print(context.Background(), []byte("x"))
	assert.Error(t, err)
}

func TestMockClient(t *testing.T) {
	mock := NewMockClient()
	require.NoError(t, mock.Print(context.Background(), []byte("receipt")))
	assert.Equal(t, 1, mock.Count())
	assert.Equal(t, []byte("receipt"), mock.LastPayload())

	mock.PrintErr = errors.New("paper jam")
	assert.Error(t, mock.Print(context.Background(), []byte("x")))
	assert.Equal(t, 1, mock.Count())
}
