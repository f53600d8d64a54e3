// Package broker provides the MQTT transport for the Lunchbox device agent.
//
// This package manages:
//   - TLS connections to the IoT Hub MQTT endpoint (port 8883)
//   - Publishing with acknowledgment timeouts
//   - Topic filter subscriptions feeding a single message handler
//   - Mapping of CONNACK refusal codes onto the iothub reject sentinels
//
// # Architecture
//
// The package implements iothub.BrokerClient over paho.mqtt.golang. It is
// deliberately dumber than a typical paho wrapper: auto-reconnect and
// connect-retry are disabled because the session owns reconnection, and
// every attempt must carry a freshly signed SAS token. A new paho client
// is built per connect attempt so stale credentials never linger.
//
// # Security Considerations
//
//   - TLS 1.2 minimum; the hub refuses plaintext connections.
//   - disable_tls exists only for tests against a local Mosquitto.
//   - The password (SAS token) is never logged.
//
// # Usage
//
//	client := broker.New(broker.Config{Host: creds.Host})
//	session := iothub.NewSession(creds, client, router, sessionCfg)
package broker
