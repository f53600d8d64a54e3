package iothub

import (
	"errors"
	"fmt"
	"testing"
)

func TestRejectReasonOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want RejectReason
	}{
		{"bad protocol", ErrBadProtocolVersion, RejectBadProtocol},
		{"bad client id", ErrClientIDRejected, RejectBadClientID},
		{"server unavailable", ErrServerUnavailable, RejectServerUnavailable},
		{"bad credentials", ErrBadCredentials, RejectBadCredentials},
		{"unauthorized", ErrUnauthorized, RejectUnauthorized},
		{"transport", ErrTransportUnavailable, RejectTransport},
		{"wrapped unauthorized", fmt.Errorf("connect: %w", ErrUnauthorized), RejectUnauthorized},
		{"unrelated", errors.New("boom"), RejectUnknown},
		{"nil", nil, RejectUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RejectReasonOf(tt.err); got != tt.want {
				t.Errorf("RejectReasonOf(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
