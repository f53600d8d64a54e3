package broker

import (
	"testing"
	"time"
)

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{Host: "hub.example.net"}.withDefaults()

	if cfg.Port != 8883 {
		t.Errorf("Port = %d, want 8883", cfg.Port)
	}
	if cfg.ConnectTimeout != 15*time.Second {
		t.Errorf("ConnectTimeout = %v, want 15s", cfg.ConnectTimeout)
	}
	if cfg.OperationTimeout != 5*time.Second {
		t.Errorf("OperationTimeout = %v, want 5s", cfg.OperationTimeout)
	}
	if cfg.KeepAlive != 60*time.Second {
		t.Errorf("KeepAlive = %v, want 60s", cfg.KeepAlive)
	}
}

func TestConfig_WithDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Config{
		Host:           "hub.example.net",
		Port:           1883,
		ConnectTimeout: 3 * time.Second,
	}.withDefaults()

	if cfg.Port != 1883 {
		t.Errorf("Port = %d, want 1883", cfg.Port)
	}
	if cfg.ConnectTimeout != 3*time.Second {
		t.Errorf("ConnectTimeout = %v, want 3s", cfg.ConnectTimeout)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := Config{Host: "hub.example.net"}.withDefaults()
	opts := buildClientOptions(cfg, "dev-1-abcd1234", "hub.example.net/dev-1/?api-version=2021-04-12", "SharedAccessSignature sr=...")

	if len(opts.Servers) != 1 {
		t.Fatalf("Servers = %v, want one broker URL", opts.Servers)
	}
	if got := opts.Servers[0].String(); got != "ssl://hub.example.net:8883" {
		t.Errorf("broker URL = %q, want ssl://hub.example.net:8883", got)
	}
	if opts.ClientID != "dev-1-abcd1234" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "hub.example.net/dev-1/?api-version=2021-04-12" {
		t.Errorf("Username = %q", opts.Username)
	}
	if opts.Password != "SharedAccessSignature sr=..." {
		t.Errorf("Password = %q", opts.Password)
	}
	if !opts.CleanSession {
		t.Error("CleanSession = false, want true")
	}
	if opts.AutoReconnect {
		t.Error("AutoReconnect = true, reconnection belongs to the session")
	}
	if opts.ConnectRetry {
		t.Error("ConnectRetry = true, retries belong to the session")
	}
	if opts.TLSConfig == nil {
		t.Fatal("TLSConfig = nil, want TLS enabled by default")
	}
	if opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Errorf("TLSConfig.MinVersion = %d, want %d", opts.TLSConfig.MinVersion, tlsMinVersion)
	}
}

func TestBuildClientOptions_DisableTLS(t *testing.T) {
	cfg := Config{Host: "localhost", Port: 1883, DisableTLS: true}.withDefaults()
	opts := buildClientOptions(cfg, "dev-1", "user", "")

	if got := opts.Servers[0].String(); got != "tcp://localhost:1883" {
		t.Errorf("broker URL = %q, want tcp://localhost:1883", got)
	}
	if opts.TLSConfig != nil && opts.TLSConfig.MinVersion != 0 {
		t.Errorf("TLSConfig = %+v, want unset in plaintext mode", opts.TLSConfig)
	}
}
