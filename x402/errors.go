package x402

import (
	"errors"
	"fmt"
)

// Code identifies a classified payment failure. The set is closed: callers switch
// on it to decide what to show and whether a retry makes sense.
type Code string

const (
	CodeRequestFailed            Code = "request_failed"
	CodeMissingRequirements      Code = "missing_payment_requirements"
	CodeWalletNotReady           Code = "wallet_not_ready"
	CodeSignatureRejected        Code = "signature_rejected"
	CodeInsufficientBalance      Code = "insufficient_balance"
	CodeFacilitatorMisconfigured Code = "facilitator_misconfigured"
	CodeInvalidSignature         Code = "invalid_signature"
	CodeAuthorizationExpired     Code = "authorization_expired"
	CodeOnChainReverted          Code = "onchain_reverted"
	CodePaymentFailed            Code = "payment_failed"
)

// Error is a classified payment failure. Message is safe to show to a user;
// Detail carries the (truncated) upstream error text for diagnostics.
//
// Requirements is populated when the failure happened after a 402 was parsed,
// so a consumer can hold the requirements and re-attempt once a wallet is bound.
type Error struct {
	Code         Code
	Status       int
	Message      string
	Detail       string
	Requirements *PaymentRequirements

	cause error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("x402: %s (status %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("x402: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// IsCode reports whether err is an *Error carrying the given code.
func IsCode(err error, code Code) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// AsError extracts the *Error from an error chain, or nil.
func AsError(err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return nil
}

func newError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}
