package iothub

import (
	"errors"
	"testing"
)

func TestParseConnectionString(t *testing.T) {
	descriptor := "HostName=LunchboxMonitoring.azure-devices.net;DeviceId=lunchbox-esp32;SharedAccessKey=" + testKeyBase64

	creds, err := ParseConnectionString(descriptor)
	if err != nil {
		t.Fatalf("ParseConnectionString() error = %v", err)
	}

	if creds.Host != "LunchboxMonitoring.azure-devices.net" {
		t.Errorf("Host = %q, want %q", creds.Host, "LunchboxMonitoring.azure-devices.net")
	}
	if creds.DeviceID != "lunchbox-esp32" {
		t.Errorf("DeviceID = %q, want %q", creds.DeviceID, "lunchbox-esp32")
	}
	if creds.SharedAccessKey != testKeyBase64 {
		t.Errorf("SharedAccessKey = %q, want %q", creds.SharedAccessKey, testKeyBase64)
	}
}

func TestParseConnectionString_OrderIndependent(t *testing.T) {
	descriptor := "SharedAccessKey=" + testKeyBase64 + ";HostName=hub.example.net;DeviceId=dev-1"

	creds, err := ParseConnectionString(descriptor)
	if err != nil {
		t.Fatalf("ParseConnectionString() error = %v", err)
	}
	if creds.Host != "hub.example.net" || creds.DeviceID != "dev-1" {
		t.Errorf("parsed %+v, segment order should not matter", creds)
	}
}

func TestParseConnectionString_KeepsBase64Padding(t *testing.T) {
	// The '=' padding sits after the first '=' separator and must survive.
	creds, err := ParseConnectionString("HostName=h;DeviceId=d;SharedAccessKey=YWJjZA==")
	if err != nil {
		t.Fatalf("ParseConnectionString() error = %v", err)
	}
	if creds.SharedAccessKey != "YWJjZA==" {
		t.Errorf("SharedAccessKey = %q, want %q", creds.SharedAccessKey, "YWJjZA==")
	}
}

func TestParseConnectionString_MissingKeys(t *testing.T) {
	tests := []struct {
		name       string
		descriptor string
	}{
		{"empty", ""},
		{"missing host", "DeviceId=d;SharedAccessKey=a"},
		{"missing device id", "HostName=h;SharedAccessKey=a"},
		{"missing key", "HostName=h;DeviceId=d"},
		{"no separators", "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConnectionString(tt.descriptor)
			if !errors.Is(err, ErrMalformedConnectionString) {
				t.Errorf("ParseConnectionString(%q) error = %v, want ErrMalformedConnectionString", tt.descriptor, err)
			}
		})
	}
}

func TestParseConnectionString_IgnoresUnknownKeys(t *testing.T) {
	descriptor := "HostName=h;DeviceId=d;SharedAccessKey=a;GatewayHostName=edge.local"

	creds, err := ParseConnectionString(descriptor)
	if err != nil {
		t.Fatalf("ParseConnectionString() error = %v", err)
	}
	if creds.Host != "h" {
		t.Errorf("Host = %q, want %q", creds.Host, "h")
	}
}

func TestCredentials_Key(t *testing.T) {
	creds := Credentials{SharedAccessKey: testKeyBase64}

	key, err := creds.Key()
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if len(key) != 16 {
		t.Errorf("len(key) = %d, want 16", len(key))
	}
	if key[0] != 0x00 || key[15] != 0x0F {
		t.Errorf("key bytes = %x, want 000102..0f", key)
	}
}

func TestCredentials_Key_InvalidBase64(t *testing.T) {
	creds := Credentials{SharedAccessKey: "not base64!!"}

	_, err := creds.Key()
	if !errors.Is(err, ErrMalformedConnectionString) {
		t.Errorf("Key() error = %v, want ErrMalformedConnectionString", err)
	}
}

func TestCredentials_ResourceURI(t *testing.T) {
	creds := Credentials{Host: "LunchboxMonitoring.azure-devices.net", DeviceID: "lunchbox-esp32"}
	if got := creds.ResourceURI(); got != testResourceURI {
		t.Errorf("ResourceURI() = %q, want %q", got, testResourceURI)
	}
}
