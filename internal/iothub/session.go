package iothub

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session defaults.
const (
	// defaultReconnectInterval is the fixed backoff between connection
	// attempts. Fixed rather than exponential: the hub throttles per
	// device anyway and the original firmware retried every 10 seconds.
	defaultReconnectInterval = 10 * time.Second

	// defaultTokenTTL is the validity window of a generated SAS token.
	defaultTokenTTL = time.Hour

	// defaultAPIVersion is the hub REST API version marker carried in
	// the MQTT username.
	defaultAPIVersion = "2021-04-12"

	// clientSuffixLen is the number of uuid characters appended to the
	// device id to build the MQTT client identifier.
	clientSuffixLen = 8
)

// Logger interface for structured logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// State is the session connection state. It is owned exclusively by the
// Session; publish operations succeed only in StateConnected.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// BrokerClient is the transport boundary. The production implementation
// lives in internal/infrastructure/broker; tests substitute a fake.
type BrokerClient interface {
	// Connect opens a broker session with the given credentials. The
	// password carries the SAS token, or is empty when authentication
	// is disabled for simulation.
	Connect(clientID, username, password string) error

	// Subscribe registers interest in a topic filter.
	Subscribe(filter string) error

	// Publish sends a payload to a topic.
	Publish(topic string, payload []byte) error

	// SetMessageHandler installs the inbound message callback. Must be
	// called before Connect.
	SetMessageHandler(fn func(topic string, payload []byte))

	// Loop pumps one round of inbound delivery and reports transport
	// loss as an error.
	Loop() error

	// Disconnect tears the session down.
	Disconnect()

	// IsConnected reports the transport's own view of the connection.
	IsConnected() bool
}

// SessionConfig carries tunables for the session state machine.
// Zero values fall back to the package defaults.
type SessionConfig struct {
	// PolicyName is the optional shared access policy (skn) for tokens.
	PolicyName string

	// APIVersion overrides the hub API version marker in the username.
	APIVersion string

	// TokenTTL is the SAS token validity window.
	TokenTTL time.Duration

	// ReconnectInterval is the fixed backoff between connect attempts.
	ReconnectInterval time.Duration

	// DisableAuth skips token generation and sends an empty password.
	// For local broker simulation only; the hub always requires a token.
	DisableAuth bool
}

// Session owns the connection state machine: it establishes the hub
// session using a SAS token, subscribes to the inbound topic filters,
// pulls the current twin, and routes inbound messages through the Router.
//
// Thread Safety:
//   - All methods are safe for concurrent use. The broker delivers
//     messages on its own goroutines, so state is mutex-guarded.
type Session struct {
	creds  Credentials
	broker BrokerClient
	router *Router
	cfg    SessionConfig
	log    Logger

	mu          sync.Mutex
	state       State
	lastAttempt time.Time
	tokenExpiry time.Time

	// now and newSuffix are swappable for tests.
	now       func() time.Time
	newSuffix func() string
}

// NewSession creates a session in the Disconnected state and installs the
// router as the broker's message handler. Call Tick from the run loop to
// drive connection attempts.
func NewSession(creds Credentials, broker BrokerClient, router *Router, cfg SessionConfig) *Session {
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = defaultReconnectInterval
	}

	s := &Session{
		creds:  creds,
		broker: broker,
		router: router,
		cfg:    cfg,
		now:    time.Now,
		newSuffix: func() string {
			return uuid.NewString()[:clientSuffixLen]
		},
	}
	broker.SetMessageHandler(s.handleMessage)
	return s
}

// SetLogger sets a logger for session diagnostics.
func (s *Session) SetLogger(log Logger) {
	s.log = log
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connected reports whether the session is established.
func (s *Session) Connected() bool {
	return s.State() == StateConnected
}

// Connect performs one connection attempt: it signs a fresh token,
// requests a broker session, and on acceptance subscribes to the method
// and twin filters and requests the current twin document. On rejection
// the session returns to Disconnected and the error carries the
// classified refusal.
func (s *Session) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked()
}

func (s *Session) connectLocked() error {
	if s.state == StateConnected {
		return nil
	}
	s.state = StateConnecting

	// A randomized suffix avoids client-id collisions with a half-closed
	// previous session on the broker side.
	clientID := s.creds.DeviceID + "-" + s.newSuffix()
	username := fmt.Sprintf("%s/%s/?api-version=%s", s.creds.Host, s.creds.DeviceID, s.cfg.APIVersion)

	password := ""
	if !s.cfg.DisableAuth {
		key, err := s.creds.Key()
		if err != nil {
			s.state = StateDisconnected
			return err
		}
		token, err := Sign(s.creds.ResourceURI(), key, s.cfg.PolicyName, s.now().Add(s.cfg.TokenTTL))
		if err != nil {
			s.state = StateDisconnected
			return err
		}
		password = token.String()
		s.tokenExpiry = token.ExpiresAt()
	}

	if err := s.broker.Connect(clientID, username, password); err != nil {
		s.state = StateDisconnected
		if s.log != nil {
			s.log.Warn("hub connection refused",
				"reason", string(RejectReasonOf(err)),
				"client_id", clientID,
				"error", err,
			)
		}
		return err
	}

	topics := Topics{}
	for _, filter := range []string{topics.MethodRequests(), topics.TwinResponses()} {
		if err := s.broker.Subscribe(filter); err != nil {
			s.broker.Disconnect()
			s.state = StateDisconnected
			return fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, filter, err)
		}
	}

	// Pull the current desired state. A failure here is logged, not
	// fatal: the hub pushes desired-property changes anyway.
	if err := s.broker.Publish(topics.TwinGet(), nil); err != nil {
		if s.log != nil {
			s.log.Warn("twin GET request failed", "error", err)
		}
	}

	s.state = StateConnected
	if s.log != nil {
		s.log.Info("connected to hub",
			"host", s.creds.Host,
			"device_id", s.creds.DeviceID,
			"client_id", clientID,
		)
	}
	return nil
}

// Publish sends a payload through the established session. It fails
// without a broker call unless the session is Connected. A broker-side
// publish failure is treated as evidence of transport loss and forces
// the session back to Disconnected.
func (s *Session) Publish(topic string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publishLocked(topic, payload)
}

func (s *Session) publishLocked(topic string, payload []byte) error {
	if s.state != StateConnected {
		return ErrNotConnected
	}
	if err := s.broker.Publish(topic, payload); err != nil {
		s.state = StateDisconnected
		if s.log != nil {
			s.log.Warn("publish failed, marking session disconnected", "topic", topic, "error", err)
		}
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Tick drives the session from the cooperative run loop.
//
// Disconnected: attempts a reconnect when at least the configured
// interval has elapsed since the last attempt, recording the attempt
// time regardless of outcome. Connected: renews the token shortly before
// expiry and otherwise pumps the transport, demoting the state if the
// pump reports loss.
func (s *Session) Tick(now time.Time) {
	s.mu.Lock()

	if s.state == StateConnected {
		if !s.cfg.DisableAuth && !s.tokenExpiry.IsZero() && !now.Before(s.renewAtLocked()) {
			if s.log != nil {
				s.log.Info("SAS token nearing expiry, reconnecting with a fresh token")
			}
			s.broker.Disconnect()
			s.state = StateDisconnected
			s.lastAttempt = now
			err := s.connectLocked()
			s.mu.Unlock()
			if err != nil && s.log != nil {
				s.log.Warn("token renewal reconnect failed", "error", err)
			}
			return
		}
		s.mu.Unlock()

		// The pump may synchronously deliver messages, whose handlers
		// call Publish; it must run outside the state lock.
		if err := s.broker.Loop(); err != nil {
			s.mu.Lock()
			s.state = StateDisconnected
			s.mu.Unlock()
			if s.log != nil {
				s.log.Warn("transport lost", "error", err)
			}
		}
		return
	}

	if now.Sub(s.lastAttempt) < s.cfg.ReconnectInterval {
		s.mu.Unlock()
		return
	}
	s.lastAttempt = now
	err := s.connectLocked()
	s.mu.Unlock()
	if err != nil && s.log != nil {
		s.log.Warn("connection attempt failed", "error", err)
	}
}

// renewAtLocked is the instant at which the session proactively replaces
// its token, one tenth of the TTL before expiry.
func (s *Session) renewAtLocked() time.Time {
	return s.tokenExpiry.Add(-s.cfg.TokenTTL / 10)
}

// Close disconnects the transport and resets the session state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateConnected {
		s.broker.Disconnect()
	}
	s.state = StateDisconnected
}

// handleMessage is the broker callback: classify, handle, and publish the
// response if the router produced one.
func (s *Session) handleMessage(topic string, payload []byte) {
	resp := s.router.Route(topic, payload)
	if resp == nil {
		return
	}
	if err := s.Publish(resp.Topic, resp.Payload); err != nil && s.log != nil {
		s.log.Warn("publishing router response failed", "topic", resp.Topic, "error", err)
	}
}
