package iothub

import "errors"

// Domain-specific errors for hub operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrMalformedConnectionString is returned when a connection string is
	// missing a required key. This is unrecoverable at startup.
	ErrMalformedConnectionString = errors.New("iothub: malformed connection string")

	// ErrSigning is returned when SAS token generation fails.
	// The connect attempt is aborted and retried on the next tick.
	ErrSigning = errors.New("iothub: token signing failed")

	// ErrNotConnected is returned when attempting to publish on a session
	// that is not in the Connected state. No broker call is made.
	ErrNotConnected = errors.New("iothub: session not connected")

	// ErrPublishFailed is returned when the broker reports a publish
	// failure. The session treats this as evidence of transport loss.
	ErrPublishFailed = errors.New("iothub: publish failed")

	// ErrTransportUnavailable is returned when the underlying network
	// transport is not ready (connect timeout, dial failure).
	ErrTransportUnavailable = errors.New("iothub: transport unavailable")

	// ErrConnectionLost is returned by the transport pump when an
	// established connection has gone away.
	ErrConnectionLost = errors.New("iothub: connection lost")

	// ErrSubscribeFailed is returned when a topic subscription is refused
	// after a successful connect.
	ErrSubscribeFailed = errors.New("iothub: subscribe failed")
)

// CONNACK refusal sentinels. The transport adapter wraps broker refusals
// in exactly one of these so the session can classify the failure without
// knowing the wire protocol.
var (
	// ErrBadProtocolVersion indicates the broker rejected the MQTT
	// protocol level.
	ErrBadProtocolVersion = errors.New("iothub: connection refused: bad protocol version")

	// ErrClientIDRejected indicates the broker rejected the client
	// identifier.
	ErrClientIDRejected = errors.New("iothub: connection refused: client identifier rejected")

	// ErrServerUnavailable indicates the hub accepted the transport but
	// cannot service connections right now.
	ErrServerUnavailable = errors.New("iothub: connection refused: server unavailable")

	// ErrBadCredentials indicates a malformed username or SAS token.
	ErrBadCredentials = errors.New("iothub: connection refused: bad credentials")

	// ErrUnauthorized indicates the credentials were well-formed but not
	// accepted (expired token, wrong key, disabled device).
	ErrUnauthorized = errors.New("iothub: connection refused: unauthorized")
)

// RejectReason is the classified cause of a refused connection attempt.
// Every reason is logged distinctly but handled identically: the session
// returns to Disconnected and retries after the backoff interval.
type RejectReason string

const (
	RejectBadProtocol       RejectReason = "bad_protocol"
	RejectBadClientID       RejectReason = "bad_client_id"
	RejectServerUnavailable RejectReason = "server_unavailable"
	RejectBadCredentials    RejectReason = "bad_credentials"
	RejectUnauthorized      RejectReason = "unauthorized"
	RejectTransport         RejectReason = "transport_unavailable"
	RejectUnknown           RejectReason = "unknown"
)

// RejectReasonOf classifies a connect error into a RejectReason.
func RejectReasonOf(err error) RejectReason {
	switch {
	case errors.Is(err, ErrBadProtocolVersion):
		return RejectBadProtocol
	case errors.Is(err, ErrClientIDRejected):
		return RejectBadClientID
	case errors.Is(err, ErrServerUnavailable):
		return RejectServerUnavailable
	case errors.Is(err, ErrBadCredentials):
		return RejectBadCredentials
	case errors.Is(err, ErrUnauthorized):
		return RejectUnauthorized
	case errors.Is(err, ErrTransportUnavailable):
		return RejectTransport
	default:
		return RejectUnknown
	}
}
