package iothub

import (
	"encoding/json"
)

// Method response statuses echoed back to the hub.
const (
	// StatusOK is the generic success status for method responses.
	StatusOK = 200
)

// Desired property keys recognised by the twin handler. Unknown keys
// never fail parsing; they are simply ignored.
const (
	propTelemetryInterval = "telemetryInterval"
)

// DeviceInfo is the fixed metadata reported by the built-in
// getDeviceInfo method.
type DeviceInfo struct {
	DeviceID        string `json:"deviceId"`
	Model           string `json:"model"`
	Manufacturer    string `json:"manufacturer"`
	FirmwareVersion string `json:"firmwareVersion"`
}

// MethodResponse is the outcome of a direct method invocation. It is
// serialized, published to the correlated response topic, and discarded.
type MethodResponse struct {
	// Status is the numeric result code echoed in the response topic.
	Status int

	// Body is the structured response payload.
	Body map[string]any
}

// MethodHandler services one direct method. The payload is the decoded
// request body; a malformed request body arrives as an empty map.
type MethodHandler func(requestID string, payload map[string]any) MethodResponse

// Response is a publishable (topic, payload) pair produced by the router.
// The router never publishes directly; the session owns the transport.
type Response struct {
	Topic   string
	Payload []byte
}

// Router classifies hub-delivered messages and dispatches them to the
// registered handlers. Each message is processed to completion within a
// single synchronous step; no message state is retained between calls.
type Router struct {
	info    DeviceInfo
	methods map[string]MethodHandler

	// onTelemetryInterval is invoked when the twin's desired properties
	// carry a telemetryInterval value.
	onTelemetryInterval func(seconds int)

	log Logger
}

// NewRouter creates a router with the built-in getDeviceInfo method
// registered.
func NewRouter(info DeviceInfo) *Router {
	r := &Router{
		info:    info,
		methods: make(map[string]MethodHandler),
	}
	r.Register("getDeviceInfo", r.handleGetDeviceInfo)
	return r
}

// Register adds (or replaces) a handler for a direct method name.
func (r *Router) Register(method string, handler MethodHandler) {
	r.methods[method] = handler
}

// OnTelemetryInterval sets the callback invoked when the hub pushes a
// desired telemetryInterval value.
func (r *Router) OnTelemetryInterval(fn func(seconds int)) {
	r.onTelemetryInterval = fn
}

// SetLogger sets a logger for routing diagnostics.
func (r *Router) SetLogger(log Logger) {
	r.log = log
}

// Route classifies topic, dispatches payload to the matching handler and
// returns the response to publish, or nil when no response is due.
func (r *Router) Route(topic string, payload []byte) *Response {
	in := ParseInbound(topic)
	switch in.Kind {
	case InboundDirectMethod:
		return r.routeMethod(in, payload)
	case InboundTwinResponse:
		r.handleTwinUpdate(payload)
		return nil
	default:
		if r.log != nil {
			r.log.Warn("unrecognized topic, message dropped", "topic", topic)
		}
		return nil
	}
}

// routeMethod decodes the request body, invokes the handler and builds
// the correlated response. Unknown methods receive a generic success
// response; the hub side treats the device as lenient and the device
// never answers "method not found".
func (r *Router) routeMethod(in Inbound, payload []byte) *Response {
	body := map[string]any{}
	if len(payload) > 0 {
		// Malformed request bodies are tolerated: the handler sees an
		// empty map and still responds with success.
		if err := json.Unmarshal(payload, &body); err != nil {
			body = map[string]any{}
			if r.log != nil {
				r.log.Warn("malformed method payload, treating as empty",
					"method", in.Method,
					"error", err,
				)
			}
		}
	}

	handler, ok := r.methods[in.Method]
	if !ok {
		handler = r.handleUnknownMethod(in.Method)
	}

	resp := handler(in.RequestID, body)
	if resp.Body == nil {
		resp.Body = map[string]any{}
	}

	encoded, err := json.Marshal(resp.Body)
	if err != nil {
		// Response bodies are built in-process from plain maps; a
		// marshal failure means a handler returned an unencodable value.
		if r.log != nil {
			r.log.Error("encoding method response", "method", in.Method, "error", err)
		}
		encoded = []byte("{}")
	}

	return &Response{
		Topic:   Topics{}.MethodResponse(resp.Status, in.RequestID),
		Payload: encoded,
	}
}

// handleGetDeviceInfo reports the fixed device metadata.
func (r *Router) handleGetDeviceInfo(_ string, _ map[string]any) MethodResponse {
	return MethodResponse{
		Status: StatusOK,
		Body: map[string]any{
			"status":          "success",
			"method":          "getDeviceInfo",
			"deviceId":        r.info.DeviceID,
			"model":           r.info.Model,
			"manufacturer":    r.info.Manufacturer,
			"firmwareVersion": r.info.FirmwareVersion,
		},
	}
}

// handleUnknownMethod returns the generic-success fallback handler.
func (r *Router) handleUnknownMethod(method string) MethodHandler {
	return func(_ string, _ map[string]any) MethodResponse {
		if r.log != nil {
			r.log.Warn("no handler for method, replying with generic success", "method", method)
		}
		return MethodResponse{
			Status: StatusOK,
			Body: map[string]any{
				"status": "success",
				"method": method,
			},
		}
	}
}

// handleTwinUpdate processes a twin response payload. Both twin GET
// acknowledgments ({"desired":{...},"reported":{...}}) and bare
// desired-property patches arrive on the same topic filter, so the shape
// of the payload decides: a top-level "desired" object is used when
// present, otherwise the document itself is treated as the desired patch.
func (r *Router) handleTwinUpdate(payload []byte) {
	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		if r.log != nil {
			r.log.Warn("malformed twin payload, ignoring", "error", err)
		}
		return
	}

	desired := doc
	if nested, ok := doc["desired"].(map[string]any); ok {
		desired = nested
	}

	if raw, ok := desired[propTelemetryInterval]; ok {
		// JSON numbers decode as float64.
		if seconds, ok := raw.(float64); ok && r.onTelemetryInterval != nil {
			r.onTelemetryInterval(int(seconds))
		}
	}
}
