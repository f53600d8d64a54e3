package iothub

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Token is a signed, time-bound shared access signature. It is created on
// demand before each connection attempt (or renewal), never mutated, and
// becomes invalid after Expiry.
type Token struct {
	// ResourceURI is the hub resource the token grants access to.
	ResourceURI string

	// Signature is the base64-encoded HMAC-SHA256 signature.
	Signature string

	// Expiry is the expiry time in Unix epoch seconds.
	Expiry int64

	// PolicyName is the optional shared access policy name (skn).
	// Empty for device-scoped keys.
	PolicyName string
}

// Sign produces a SAS token for the given resource, valid until expiresAt.
//
// The signed string is percentEncode(uri) + "\n" + decimal(expiry); the
// signature is base64(HMAC-SHA256(key, stringToSign)). Sign either returns
// a complete token or an error, never a partial token.
func Sign(resourceURI string, key []byte, policyName string, expiresAt time.Time) (Token, error) {
	if len(key) == 0 {
		return Token{}, fmt.Errorf("%w: empty signing key", ErrSigning)
	}

	expiry := expiresAt.Unix()
	stringToSign := percentEncode(resourceURI) + "\n" + strconv.FormatInt(expiry, 10)

	mac := hmac.New(sha256.New, key)
	if _, err := mac.Write([]byte(stringToSign)); err != nil {
		return Token{}, fmt.Errorf("%w: %w", ErrSigning, err)
	}

	return Token{
		ResourceURI: resourceURI,
		Signature:   base64.StdEncoding.EncodeToString(mac.Sum(nil)),
		Expiry:      expiry,
		PolicyName:  policyName,
	}, nil
}

// String composes the wire form of the token:
//
//	SharedAccessSignature sr=<uri>&sig=<encoded>&se=<expiry>[&skn=<policy>]
func (t Token) String() string {
	var b strings.Builder
	b.WriteString("SharedAccessSignature sr=")
	b.WriteString(t.ResourceURI)
	b.WriteString("&sig=")
	b.WriteString(percentEncode(t.Signature))
	b.WriteString("&se=")
	b.WriteString(strconv.FormatInt(t.Expiry, 10))
	if t.PolicyName != "" {
		b.WriteString("&skn=")
		b.WriteString(t.PolicyName)
	}
	return b.String()
}

// ExpiresAt returns the expiry as a time.Time.
func (t Token) ExpiresAt() time.Time {
	return time.Unix(t.Expiry, 0)
}

const upperhex = "0123456789ABCDEF"

// percentEncode encodes every byte outside [A-Za-z0-9-_.~] as %XX with
// uppercase hex digits. The hub's decoder is case-sensitive, so the hex
// case must be consistent; net/url's escapers cover a different character
// set (QueryEscape emits '+' for spaces) and cannot be used here.
func percentEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
			b.WriteByte(c)
		case c == '-' || c == '_' || c == '.' || c == '~':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&0x0F])
		}
	}
	return b.String()
}
