package x402

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/rekonmarkets/rekon-go/x402/evm"
)

// ProtocolVersion is the x402 protocol version this client speaks.
const ProtocolVersion = 1

// PaymentPayload is the signed proof carried inside the payment envelope.
type PaymentPayload struct {
	Signature     string                    `json:"signature"`
	Authorization evm.TransferAuthorization `json:"authorization"`
}

// PaymentEnvelope is the JSON structure base64-encoded into the X-Payment header.
// Addresses are lowercase and all numeric fields are stringified; the facilitator
// is strict about both.
type PaymentEnvelope struct {
	X402Version int            `json:"x402Version"`
	Scheme      string         `json:"scheme"`
	Network     string         `json:"network"`
	Payload     PaymentPayload `json:"payload"`
}

// EncodePaymentHeader serializes an envelope for the X-Payment request header.
func EncodePaymentHeader(env PaymentEnvelope) (string, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshal payment envelope: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodePaymentHeader parses an X-Payment header value back into an envelope.
// Used by tests and by anything that needs to inspect an outgoing proof.
func DecodePaymentHeader(value string) (*PaymentEnvelope, error) {
	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode payment header: %w", err)
	}
	var env PaymentEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse payment envelope: %w", err)
	}
	return &env, nil
}
