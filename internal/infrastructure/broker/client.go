package broker

import (
	"errors"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"

	"github.com/Saakihegde12345/LunchboxMonitoring/internal/iothub"
)

// Client adapts paho.mqtt.golang to the iothub.BrokerClient interface.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	cfg Config

	client pahomqtt.Client
	mu     sync.RWMutex

	// handler receives every inbound message regardless of which filter
	// matched; classification happens in the iothub router.
	handler   func(topic string, payload []byte)
	handlerMu sync.RWMutex

	// logger for handler panic logging (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// New creates a disconnected client for the configured endpoint.
func New(cfg Config) *Client {
	return &Client{cfg: cfg.withDefaults()}
}

// SetLogger sets a logger for error and panic logging.
// If not set, handler panics are silently swallowed.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// SetMessageHandler installs the inbound message callback.
// Implements iothub.BrokerClient.
func (c *Client) SetMessageHandler(fn func(topic string, payload []byte)) {
	c.handlerMu.Lock()
	c.handler = fn
	c.handlerMu.Unlock()
}

// Connect opens a broker session with the given credentials.
// Implements iothub.BrokerClient.
//
// A fresh paho client is built for every attempt so each connection
// carries the token it was handed, and refusals are mapped onto the
// iothub reject sentinels for classification by the session.
func (c *Client) Connect(clientID, username, password string) error {
	opts := buildClientOptions(c.cfg, clientID, username, password)
	opts.SetDefaultPublishHandler(func(_ pahomqtt.Client, msg pahomqtt.Message) {
		c.dispatch(msg.Topic(), msg.Payload())
	})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(c.cfg.ConnectTimeout) {
		return fmt.Errorf("%w: connect timeout after %v", iothub.ErrTransportUnavailable, c.cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return classifyConnectError(err)
	}

	c.mu.Lock()
	old := c.client
	c.client = client
	c.mu.Unlock()

	// A half-open previous client would otherwise leak its network
	// goroutines.
	if old != nil && old.IsConnected() {
		old.Disconnect(0)
	}

	return nil
}

// Subscribe registers interest in a topic filter at the configured QoS.
// Implements iothub.BrokerClient.
func (c *Client) Subscribe(filter string) error {
	client := c.current()
	if client == nil {
		return iothub.ErrNotConnected
	}

	token := client.Subscribe(filter, c.cfg.QoS, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		c.dispatch(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(c.cfg.OperationTimeout) {
		return fmt.Errorf("subscribe %s: timeout after %v", filter, c.cfg.OperationTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", filter, err)
	}
	return nil
}

// Publish sends a payload to a topic at the configured QoS.
// Implements iothub.BrokerClient.
func (c *Client) Publish(topic string, payload []byte) error {
	client := c.current()
	if client == nil {
		return iothub.ErrNotConnected
	}

	token := client.Publish(topic, c.cfg.QoS, false, payload)
	if !token.WaitTimeout(c.cfg.OperationTimeout) {
		return fmt.Errorf("publish %s: timeout after %v", topic, c.cfg.OperationTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Loop pumps one round of inbound delivery. paho delivers messages on its
// own goroutines, so the pump reduces to a liveness check on the
// connection. Implements iothub.BrokerClient.
func (c *Client) Loop() error {
	if !c.IsConnected() {
		return iothub.ErrConnectionLost
	}
	return nil
}

// Disconnect tears the session down. Implements iothub.BrokerClient.
func (c *Client) Disconnect() {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()

	if client != nil && client.IsConnected() {
		client.Disconnect(disconnectQuiesce)
	}
}

// IsConnected reports the transport's view of the connection.
// Implements iothub.BrokerClient.
func (c *Client) IsConnected() bool {
	client := c.current()
	return client != nil && client.IsConnected()
}

func (c *Client) current() pahomqtt.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// dispatch forwards an inbound message to the installed handler with
// panic recovery.
func (c *Client) dispatch(topic string, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			if logger := c.getLogger(); logger != nil {
				logger.Error("message handler panic recovered",
					"topic", topic,
					"panic", r,
				)
			}
		}
	}()

	c.handlerMu.RLock()
	handler := c.handler
	c.handlerMu.RUnlock()
	if handler != nil {
		handler(topic, payload)
	}
}

// classifyConnectError maps a paho connect failure onto the iothub
// reject sentinels. The CONNACK return codes are singleton errors in the
// packets package, so errors.Is comparisons hold.
func classifyConnectError(err error) error {
	switch {
	case errors.Is(err, packets.ConnErrors[packets.ErrRefusedBadProtocolVersion]):
		return fmt.Errorf("%w: %w", iothub.ErrBadProtocolVersion, err)
	case errors.Is(err, packets.ConnErrors[packets.ErrRefusedIDRejected]):
		return fmt.Errorf("%w: %w", iothub.ErrClientIDRejected, err)
	case errors.Is(err, packets.ConnErrors[packets.ErrRefusedServerUnavailable]):
		return fmt.Errorf("%w: %w", iothub.ErrServerUnavailable, err)
	case errors.Is(err, packets.ConnErrors[packets.ErrRefusedBadUsernameOrPassword]):
		return fmt.Errorf("%w: %w", iothub.ErrBadCredentials, err)
	case errors.Is(err, packets.ConnErrors[packets.ErrRefusedNotAuthorised]):
		return fmt.Errorf("%w: %w", iothub.ErrUnauthorized, err)
	case errors.Is(err, packets.ConnErrors[packets.ErrNetworkError]):
		return fmt.Errorf("%w: %w", iothub.ErrTransportUnavailable, err)
	default:
		return fmt.Errorf("broker: connect: %w", err)
	}
}
