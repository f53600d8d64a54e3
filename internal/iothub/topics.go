package iothub

import (
	"fmt"
	"strings"
)

// Topic prefixes per the IoT Hub MQTT convention. These must match the
// hub byte-for-byte; they are not configurable.
const (
	// topicPrefixMethods is the prefix of inbound direct method requests.
	topicPrefixMethods = "$iothub/methods/POST/"

	// topicPrefixTwinRes is the prefix of twin responses, covering both
	// desired-property pushes and GET acknowledgments.
	topicPrefixTwinRes = "$iothub/twin/res/"

	// ridParam introduces the request correlation id in a topic.
	ridParam = "$rid="
)

// Topics provides builders for the hub MQTT topics this device uses.
// Using these helpers keeps topic strings consistent across the codebase.
//
//	topics := iothub.Topics{}
//	telemetry := topics.Telemetry("lunchbox-esp32")
//	// Returns: "devices/lunchbox-esp32/messages/events/"
type Topics struct{}

// Telemetry returns the device-to-cloud telemetry topic.
//
// Example: devices/lunchbox-esp32/messages/events/
func (Topics) Telemetry(deviceID string) string {
	return fmt.Sprintf("devices/%s/messages/events/", deviceID)
}

// MethodRequests returns the subscription filter for direct method requests.
//
// Pattern: $iothub/methods/POST/#
func (Topics) MethodRequests() string {
	return topicPrefixMethods + "#"
}

// TwinResponses returns the subscription filter for twin responses.
//
// Pattern: $iothub/twin/res/#
func (Topics) TwinResponses() string {
	return topicPrefixTwinRes + "#"
}

// TwinGet returns the publish topic that requests the current twin document.
//
// Topic: $iothub/twin/GET/?$rid=1
func (Topics) TwinGet() string {
	return "$iothub/twin/GET/?$rid=1"
}

// MethodResponse returns the publish topic for a direct method response.
//
// Example: $iothub/methods/res/200/?$rid=12
func (Topics) MethodResponse(status int, requestID string) string {
	return fmt.Sprintf("$iothub/methods/res/%d/?%s%s", status, ridParam, requestID)
}

// InboundKind classifies an inbound topic string.
type InboundKind int

const (
	// InboundUnrecognized is any topic outside the known patterns.
	// It is logged and not dispatched.
	InboundUnrecognized InboundKind = iota

	// InboundDirectMethod is a direct method invocation request.
	InboundDirectMethod

	// InboundTwinResponse is a twin response: either a desired-property
	// push or a GET acknowledgment. The two are told apart by payload
	// shape, not topic.
	InboundTwinResponse
)

// String returns the classification name for logging.
func (k InboundKind) String() string {
	switch k {
	case InboundDirectMethod:
		return "direct_method"
	case InboundTwinResponse:
		return "twin_response"
	default:
		return "unrecognized"
	}
}

// Inbound is the classified view over a raw inbound topic. Method and
// RequestID are populated only for InboundDirectMethod.
type Inbound struct {
	Kind      InboundKind
	Method    string
	RequestID string
}

// ParseInbound classifies a raw topic string. It is total: every input
// maps to exactly one Inbound and parsing never fails.
//
// For a direct method topic the method name is the path segment directly
// after the prefix (up to the next '/' or '?'), and the request id is the
// value of the $rid= parameter (up to the next '?' or end of string,
// empty when absent):
//
//	$iothub/methods/POST/getDeviceInfo/?$rid=12
//	  → Method "getDeviceInfo", RequestID "12"
func ParseInbound(topic string) Inbound {
	switch {
	case strings.HasPrefix(topic, topicPrefixMethods):
		rest := topic[len(topicPrefixMethods):]
		method := rest
		if i := strings.IndexAny(rest, "/?"); i >= 0 {
			method = rest[:i]
		}
		requestID := ""
		if i := strings.Index(topic, ridParam); i >= 0 {
			requestID = topic[i+len(ridParam):]
			if j := strings.IndexByte(requestID, '?'); j >= 0 {
				requestID = requestID[:j]
			}
		}
		return Inbound{Kind: InboundDirectMethod, Method: method, RequestID: requestID}

	case strings.HasPrefix(topic, topicPrefixTwinRes):
		return Inbound{Kind: InboundTwinResponse}

	default:
		return Inbound{Kind: InboundUnrecognized}
	}
}
