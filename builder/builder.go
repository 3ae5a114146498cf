// Package builder produces the HMAC-signed attribution headers that must
// accompany every trade request sent upstream, so the operator's fee share can
// be credited by the market protocol.
package builder

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Header names attached to attributed requests.
const (
	HeaderAPIKey     = "POLY_BUILDER_API_KEY"
	HeaderTimestamp  = "POLY_BUILDER_TIMESTAMP"
	HeaderPassphrase = "POLY_BUILDER_PASSPHRASE"
	HeaderSignature  = "POLY_BUILDER_SIGNATURE"
)

// Credentials are the builder's secret credentials, read once at process start
// and immutable for the process lifetime.
type Credentials struct {
	APIKey     string
	Secret     string
	Passphrase string
}

// Validate reports the first missing credential, if any.
func (c Credentials) Validate() error {
	switch {
	case c.APIKey == "":
		return fmt.Errorf("builder api key is required")
	case c.Secret == "":
		return fmt.Errorf("builder secret is required")
	case c.Passphrase == "":
		return fmt.Errorf("builder passphrase is required")
	}
	return nil
}

// AttributionHeaders is the computed header set for one outgoing request.
// Never stored; a fresh timestamp is generated per request.
type AttributionHeaders struct {
	APIKey     string `json:"POLY_BUILDER_API_KEY"`
	Timestamp  string `json:"POLY_BUILDER_TIMESTAMP"`
	Passphrase string `json:"POLY_BUILDER_PASSPHRASE"`
	Signature  string `json:"POLY_BUILDER_SIGNATURE"`
}

// Map returns the headers keyed by wire name, ready to set on a request.
func (h AttributionHeaders) Map() map[string]string {
	return map[string]string{
		HeaderAPIKey:     h.APIKey,
		HeaderTimestamp:  h.Timestamp,
		HeaderPassphrase: h.Passphrase,
		HeaderSignature:  h.Signature,
	}
}

// Sign computes the attribution signature: HMAC-SHA256 over the canonical
// concatenation timestamp+method+path+body with no separators, keyed by the
// base64url-decoded secret, emitted as base64url with padding.
//
// Deterministic: identical inputs always yield the identical signature.
func Sign(secret string, timestamp int64, method, path, body string) (string, error) {
	message := strconv.FormatInt(timestamp, 10) + method + path + body

	keyData, err := decodeSecret(secret)
	if err != nil {
		return "", fmt.Errorf("decode builder secret: %w", err)
	}

	mac := hmac.New(sha256.New, keyData)
	mac.Write([]byte(message))
	digest := mac.Sum(nil)

	sig := base64.StdEncoding.EncodeToString(digest)
	sig = strings.ReplaceAll(sig, "+", "-")
	sig = strings.ReplaceAll(sig, "/", "_")
	return sig, nil
}

// Headers computes the full attribution header set for a request at the given
// timestamp. Callers normally pass time.Now().Unix(); tests pin it.
func Headers(creds Credentials, timestamp int64, method, path, body string) (*AttributionHeaders, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	sig, err := Sign(creds.Secret, timestamp, method, path, body)
	if err != nil {
		return nil, err
	}

	return &AttributionHeaders{
		APIKey:     creds.APIKey,
		Timestamp:  strconv.FormatInt(timestamp, 10),
		Passphrase: creds.Passphrase,
		Signature:  sig,
	}, nil
}

// Now returns the timestamp to stamp a fresh request with.
func Now() int64 {
	return time.Now().Unix()
}

// decodeSecret accepts both base64 and base64url secrets, tolerating stray
// characters the upstream dashboard sometimes wraps keys with.
func decodeSecret(secret string) ([]byte, error) {
	sanitized := strings.ReplaceAll(secret, "-", "+")
	sanitized = strings.ReplaceAll(sanitized, "_", "/")
	sanitized = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') ||
			(r >= '0' && r <= '9') || r == '+' || r == '/' || r == '=' {
			return r
		}
		return -1
	}, sanitized)

	return base64.StdEncoding.DecodeString(sanitized)
}
