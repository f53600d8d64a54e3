//go:build integration

package broker

import (
	"sync/atomic"
	"testing"
	"time"
)

// Integration tests for the broker adapter.
// These tests require a running plaintext MQTT broker at 127.0.0.1:1883
// with anonymous access enabled.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/broker/...

func integrationConfig() Config {
	return Config{
		Host:           "127.0.0.1",
		Port:           1883,
		DisableTLS:     true,
		QoS:            1,
		ConnectTimeout: 5 * time.Second,
	}
}

func TestIntegration_ConnectPublishSubscribe(t *testing.T) {
	c := New(integrationConfig())

	var received atomic.Int32
	c.SetMessageHandler(func(topic string, payload []byte) {
		if topic == "lunchbox/int/loopback" && string(payload) == "ping" {
			received.Add(1)
		}
	})

	if err := c.Connect("lunchbox-int-loopback", "", ""); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Disconnect()

	if !c.IsConnected() {
		t.Fatal("IsConnected() = false after Connect")
	}
	if err := c.Loop(); err != nil {
		t.Fatalf("Loop() error = %v", err)
	}

	if err := c.Subscribe("lunchbox/int/loopback"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := c.Publish("lunchbox/int/loopback", []byte("ping")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for received.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if received.Load() == 0 {
		t.Error("loopback message not delivered within deadline")
	}
}

func TestIntegration_DisconnectStopsDelivery(t *testing.T) {
	c := New(integrationConfig())
	if err := c.Connect("lunchbox-int-disconnect", "", ""); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	c.Disconnect()
	if c.IsConnected() {
		t.Error("IsConnected() = true after Disconnect")
	}
	if err := c.Loop(); err == nil {
		t.Error("Loop() = nil after Disconnect, want connection lost")
	}
}
