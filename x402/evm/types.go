package evm

import (
	"context"
	"math/big"
)

// TransferAuthorization is the EIP-3009 TransferWithAuthorization message that a
// wallet signs to consent to a payment.
type TransferAuthorization struct {
	From        string `json:"from"`        // Signer address (hex)
	To          string `json:"to"`          // Recipient address (hex)
	Value       string `json:"value"`       // Amount in the token's smallest unit, as a string
	ValidAfter  string `json:"validAfter"`  // Unix timestamp as string
	ValidBefore string `json:"validBefore"` // Unix timestamp as string
	Nonce       string `json:"nonce"`       // 32-byte nonce as hex string
}

// TypedDataDomain represents the EIP-712 domain separator
type TypedDataDomain struct {
	Name              string   `json:"name"`
	Version           string   `json:"version"`
	ChainID           *big.Int `json:"chainId"`
	VerifyingContract string   `json:"verifyingContract"`
}

// TypedDataField represents a field in EIP-712 typed data
type TypedDataField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Signer is the wallet capability the payment flow depends on. It is deliberately
// minimal so the negotiator stays testable with a mock and portable across wallet
// integrations: a bound account, a chain, and typed-data signing.
//
// SignTypedData may block for as long as the user takes to approve the request in
// a wallet UI; implementations must honor ctx cancellation where they can.
type Signer interface {
	// Address returns the signer's account address, or "" if no account is bound.
	Address() string

	// ChainID returns the chain the signer is bound to, or nil if unbound.
	ChainID() *big.Int

	// SignTypedData signs EIP-712 typed data and returns a 65-byte (r, s, v) signature.
	SignTypedData(ctx context.Context, domain TypedDataDomain, types map[string][]TypedDataField, primaryType string, message map[string]interface{}) ([]byte, error)
}

// TransferWithAuthorizationTypes is the EIP-712 type set for EIP-3009
// transferWithAuthorization, shared by signing and verification.
var TransferWithAuthorizationTypes = map[string][]TypedDataField{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"TransferWithAuthorization": {
		{Name: "from", Type: "address"},
		{Name: "to", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "validAfter", Type: "uint256"},
		{Name: "validBefore", Type: "uint256"},
		{Name: "nonce", Type: "bytes32"},
	},
}
