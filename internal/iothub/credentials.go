package iothub

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Connection string keys as issued by the IoT Hub device registry.
const (
	keyHostName        = "HostName"
	keyDeviceID        = "DeviceId"
	keySharedAccessKey = "SharedAccessKey"
)

// Credentials holds the identity extracted from a device connection string.
// They are derived once at startup and immutable for the process lifetime.
type Credentials struct {
	// Host is the hub endpoint, e.g. "LunchboxMonitoring.azure-devices.net".
	Host string

	// DeviceID is the device identity registered with the hub.
	DeviceID string

	// SharedAccessKey is the base64-encoded shared secret, kept exactly as
	// it appeared in the connection string. Use Key to obtain the raw bytes.
	SharedAccessKey string
}

// ParseConnectionString extracts credentials from a semicolon-delimited
// key=value descriptor:
//
//	HostName=<host>;DeviceId=<id>;SharedAccessKey=<base64>
//
// Segments may appear in any order and unknown keys are ignored. Values
// keep everything after the first "=", so base64 padding survives intact.
// No trimming is applied; the exact substrings between delimiters are kept.
func ParseConnectionString(descriptor string) (Credentials, error) {
	var creds Credentials

	for _, segment := range strings.Split(descriptor, ";") {
		if segment == "" {
			continue
		}
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			continue
		}
		switch key {
		case keyHostName:
			creds.Host = value
		case keyDeviceID:
			creds.DeviceID = value
		case keySharedAccessKey:
			creds.SharedAccessKey = value
		}
	}

	for _, required := range []struct {
		key   string
		value string
	}{
		{keyHostName, creds.Host},
		{keyDeviceID, creds.DeviceID},
		{keySharedAccessKey, creds.SharedAccessKey},
	} {
		if required.value == "" {
			return Credentials{}, fmt.Errorf("%w: missing %s", ErrMalformedConnectionString, required.key)
		}
	}

	return creds, nil
}

// Key decodes the shared access key into the raw signing secret.
func (c Credentials) Key() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(c.SharedAccessKey)
	if err != nil {
		return nil, fmt.Errorf("%w: shared access key is not valid base64: %w", ErrMalformedConnectionString, err)
	}
	return key, nil
}

// ResourceURI returns the hub resource this device signs tokens for.
//
// Example: LunchboxMonitoring.azure-devices.net/devices/lunchbox-esp32
func (c Credentials) ResourceURI() string {
	return c.Host + "/devices/" + c.DeviceID
}
