package broker

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Connection constants.
const (
	// defaultPort is the IoT Hub MQTT-over-TLS port.
	defaultPort = 8883

	// defaultConnectTimeout is the maximum time to wait for CONNACK.
	defaultConnectTimeout = 15 * time.Second

	// defaultOperationTimeout is the maximum time to wait for publish
	// and subscribe acknowledgments.
	defaultOperationTimeout = 5 * time.Second

	// defaultKeepAlive is the MQTT keepalive interval.
	defaultKeepAlive = 60 * time.Second

	// defaultQoS is at-least-once, matching the hub's telemetry path.
	defaultQoS byte = 1

	// disconnectQuiesce is the time in milliseconds to wait for pending
	// operations on disconnect.
	disconnectQuiesce = 250

	// tlsMinVersion is the minimum TLS version for hub connections.
	tlsMinVersion = tls.VersionTLS12
)

// Config contains transport settings for the hub endpoint.
type Config struct {
	// Host is the hub hostname, e.g. "LunchboxMonitoring.azure-devices.net".
	Host string

	// Port is the broker port. Default: 8883.
	Port int

	// DisableTLS connects in plaintext. Only useful against a local
	// broker in tests; the hub requires TLS.
	DisableTLS bool

	// QoS is the quality of service for publishes and subscriptions.
	QoS byte

	// ConnectTimeout bounds the wait for CONNACK.
	ConnectTimeout time.Duration

	// OperationTimeout bounds publish/subscribe acknowledgment waits.
	OperationTimeout time.Duration

	// KeepAlive is the MQTT keepalive interval.
	KeepAlive time.Duration
}

// withDefaults fills zero values with the package defaults.
func (cfg Config) withDefaults() Config {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = defaultOperationTimeout
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = defaultKeepAlive
	}
	return cfg
}

// buildClientOptions creates paho options for one connection attempt.
//
// Auto-reconnect and connect-retry stay off: reconnection is driven by
// the session so that every attempt is made with a fresh SAS token.
func buildClientOptions(cfg Config, clientID, username, password string) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "ssl"
	if cfg.DisableTLS {
		scheme = "tcp"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port))

	opts.SetClientID(clientID)
	opts.SetUsername(username)
	if password != "" {
		opts.SetPassword(password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetKeepAlive(cfg.KeepAlive)

	if !cfg.DisableTLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	return opts
}
