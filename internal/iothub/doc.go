// Package iothub implements the device-to-cloud core of the Lunchbox
// Monitoring agent: SAS token authentication against Azure IoT Hub and
// dispatch of hub-delivered MQTT messages to in-device handlers.
//
// This package manages:
//   - Connection string parsing (HostName / DeviceId / SharedAccessKey)
//   - Time-bound SAS token generation (HMAC-SHA256 over the resource URI)
//   - The session state machine with fixed-interval reconnect backoff
//   - Topic classification and routing of direct methods and twin updates
//
// # Architecture
//
// The session owns the connection lifecycle and talks to the broker only
// through the BrokerClient interface; the MQTT transport itself lives in
// internal/infrastructure/broker. The router is free of transport side
// effects: it classifies a (topic, payload) pair and returns a response
// descriptor for the session to publish.
//
//	Sampler → Reporter → Session ↔ BrokerClient ↔ IoT Hub
//	                        ↓
//	                      Router → method / twin handlers
//
// # Security Considerations
//
//   - The shared access key never leaves this package; only signed,
//     expiring tokens are handed to the transport.
//   - Tokens are regenerated for every connection attempt and renewed
//     before expiry on long-lived sessions.
//   - disable_auth exists for local broker simulation only.
//
// # Usage
//
//	creds, err := iothub.ParseConnectionString(cfg.Device.ConnectionString)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	router := iothub.NewRouter(info)
//	session := iothub.NewSession(creds, client, router, sessionCfg)
//
//	for now := range ticker.C {
//	    session.Tick(now)
//	}
package iothub
