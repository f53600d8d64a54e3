package iothub

import (
	"encoding/base64"
	"errors"
	"net/url"
	"testing"
	"time"
)

// Fixed vector: key bytes 0x00..0x0F, expiry 2025-01-01T00:00:00Z.
const (
	testResourceURI = "LunchboxMonitoring.azure-devices.net/devices/lunchbox-esp32"
	testKeyBase64   = "AAECAwQFBgcICQoLDA0ODw=="
	testExpiry      = int64(1735689600)
	testSignature   = "sq+tRq3nrxEIyClSpEhqqwO/Xuo+Ct/D1YN69GcXmj4="
	testToken       = "SharedAccessSignature sr=LunchboxMonitoring.azure-devices.net/devices/lunchbox-esp32" +
		"&sig=sq%2BtRq3nrxEIyClSpEhqqwO%2FXuo%2BCt%2FD1YN69GcXmj4%3D&se=1735689600"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := base64.StdEncoding.DecodeString(testKeyBase64)
	if err != nil {
		t.Fatalf("decoding test key: %v", err)
	}
	return key
}

func TestSign_KnownVector(t *testing.T) {
	token, err := Sign(testResourceURI, testKey(t), "", time.Unix(testExpiry, 0))
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	if token.Signature != testSignature {
		t.Errorf("Signature = %q, want %q", token.Signature, testSignature)
	}
	if token.Expiry != testExpiry {
		t.Errorf("Expiry = %d, want %d", token.Expiry, testExpiry)
	}
	if got := token.String(); got != testToken {
		t.Errorf("String() = %q, want %q", got, testToken)
	}
}

func TestSign_Deterministic(t *testing.T) {
	key := testKey(t)
	expiresAt := time.Unix(testExpiry, 0)

	first, err := Sign(testResourceURI, key, "", expiresAt)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	second, err := Sign(testResourceURI, key, "", expiresAt)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	if first.String() != second.String() {
		t.Errorf("same inputs produced different tokens:\n%s\n%s", first.String(), second.String())
	}
}

func TestSign_PolicyNameSuffix(t *testing.T) {
	token, err := Sign(testResourceURI, testKey(t), "device", time.Unix(testExpiry, 0))
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	want := testToken + "&skn=device"
	if got := token.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestSign_EmptyKey(t *testing.T) {
	_, err := Sign(testResourceURI, nil, "", time.Unix(testExpiry, 0))
	if err == nil {
		t.Fatal("Sign() expected error for empty key, got nil")
	}
	if !errors.Is(err, ErrSigning) {
		t.Errorf("Sign() error = %v, want wrapped ErrSigning", err)
	}
}

func TestToken_ExpiresAt(t *testing.T) {
	token := Token{Expiry: testExpiry}
	if got := token.ExpiresAt().Unix(); got != testExpiry {
		t.Errorf("ExpiresAt().Unix() = %d, want %d", got, testExpiry)
	}
}

func TestPercentEncode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unreserved untouched", "AZaz09-_.~", "AZaz09-_.~"},
		{"slash", "host/devices/id", "host%2Fdevices%2Fid"},
		{"base64 padding", "abc+/=", "abc%2B%2F%3D"},
		{"space", "a b", "a%20b"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := percentEncode(tt.input); got != tt.want {
				t.Errorf("percentEncode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPercentEncode_RoundTrip(t *testing.T) {
	inputs := []string{
		testResourceURI,
		testSignature,
		"weird !@#$%^&*() input",
	}
	for _, input := range inputs {
		decoded, err := url.PathUnescape(percentEncode(input))
		if err != nil {
			t.Fatalf("PathUnescape(%q) error = %v", input, err)
		}
		if decoded != input {
			t.Errorf("round trip of %q = %q", input, decoded)
		}
	}
}
