package broker

import (
	"errors"
	"fmt"
	"testing"

	"github.com/eclipse/paho.mqtt.golang/packets"

	"github.com/Saakihegde12345/LunchboxMonitoring/internal/iothub"
)

func TestClassifyConnectError(t *testing.T) {
	tests := []struct {
		name string
		code byte
		want error
	}{
		{"bad protocol version", packets.ErrRefusedBadProtocolVersion, iothub.ErrBadProtocolVersion},
		{"id rejected", packets.ErrRefusedIDRejected, iothub.ErrClientIDRejected},
		{"server unavailable", packets.ErrRefusedServerUnavailable, iothub.ErrServerUnavailable},
		{"bad username or password", packets.ErrRefusedBadUsernameOrPassword, iothub.ErrBadCredentials},
		{"not authorised", packets.ErrRefusedNotAuthorised, iothub.ErrUnauthorized},
		{"network error", packets.ErrNetworkError, iothub.ErrTransportUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyConnectError(packets.ConnErrors[tt.code])
			if !errors.Is(got, tt.want) {
				t.Errorf("classifyConnectError() = %v, want wrapped %v", got, tt.want)
			}
			// The original paho error stays in the chain for logging.
			if !errors.Is(got, packets.ConnErrors[tt.code]) {
				t.Errorf("classifyConnectError() = %v, lost the underlying error", got)
			}
		})
	}
}

func TestClassifyConnectError_WrappedCode(t *testing.T) {
	wrapped := fmt.Errorf("dial: %w", packets.ConnErrors[packets.ErrRefusedNotAuthorised])
	got := classifyConnectError(wrapped)
	if !errors.Is(got, iothub.ErrUnauthorized) {
		t.Errorf("classifyConnectError() = %v, want wrapped ErrUnauthorized", got)
	}
}

func TestClassifyConnectError_Unknown(t *testing.T) {
	cause := errors.New("something else")
	got := classifyConnectError(cause)
	if !errors.Is(got, cause) {
		t.Errorf("classifyConnectError() = %v, lost the cause", got)
	}
	if errors.Is(got, iothub.ErrUnauthorized) || errors.Is(got, iothub.ErrTransportUnavailable) {
		t.Errorf("classifyConnectError() = %v, misclassified an unknown error", got)
	}
}

func TestClient_LoopWhenDisconnected(t *testing.T) {
	c := New(Config{Host: "localhost"})
	if err := c.Loop(); !errors.Is(err, iothub.ErrConnectionLost) {
		t.Errorf("Loop() error = %v, want ErrConnectionLost", err)
	}
}

func TestClient_PublishWhenDisconnected(t *testing.T) {
	c := New(Config{Host: "localhost"})
	if err := c.Publish("t", nil); !errors.Is(err, iothub.ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
}

func TestClient_SubscribeWhenDisconnected(t *testing.T) {
	c := New(Config{Host: "localhost"})
	if err := c.Subscribe("t/#"); !errors.Is(err, iothub.ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
}

func TestClient_DispatchPanicRecovery(t *testing.T) {
	c := New(Config{Host: "localhost"})
	c.SetMessageHandler(func(topic string, payload []byte) {
		panic("handler exploded")
	})

	// Must not propagate; the network goroutine would die otherwise.
	c.dispatch("some/topic", []byte("payload"))
}

func TestClient_DispatchWithoutHandler(t *testing.T) {
	c := New(Config{Host: "localhost"})
	c.dispatch("some/topic", []byte("payload"))
}
