package x402

import (
	"encoding/json"
	"fmt"
	"strings"
)

// maxDetailLen bounds how much raw upstream error text is kept for diagnostics.
const maxDetailLen = 300

// User-facing messages for classified failures.
const (
	msgInsufficientBalance      = "Insufficient USDC balance. Please add funds to your wallet."
	msgFacilitatorMisconfigured = "The payment facilitator wallet is misconfigured. Please contact support."
	msgInvalidSignature         = "Payment signature was rejected by the server. Please try again."
	msgAuthorizationExpired     = "Payment authorization expired. Please try again."
	msgOnChainReverted          = "Payment transaction reverted on-chain. Please try again."
)

// extractErrorMessage pulls a human-meaningful message out of an upstream error
// body, trying the common keys before falling back to the raw body.
func extractErrorMessage(body []byte) string {
	var parsed struct {
		ErrorMessage string `json:"errorMessage"`
		Error        string `json:"error"`
		Message      string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		for _, candidate := range []string{parsed.ErrorMessage, parsed.Error, parsed.Message} {
			if candidate != "" {
				return candidate
			}
		}
	}
	return strings.TrimSpace(string(body))
}

// classifyPaymentFailure maps a rejected paid retry onto the failure taxonomy by
// case-insensitive substring matching on the server's error message. Unmatched
// messages become a generic PaymentFailed carrying the status and truncated text.
func classifyPaymentFailure(status int, body []byte) *Error {
	raw := extractErrorMessage(body)
	detail := raw
	if len(detail) > maxDetailLen {
		detail = detail[:maxDetailLen]
	}
	lower := strings.ToLower(raw)

	contains := func(subs ...string) bool {
		for _, s := range subs {
			if strings.Contains(lower, s) {
				return true
			}
		}
		return false
	}

	switch {
	case contains("insufficient balance", "insufficient funds", "exceeds balance"):
		return &Error{Code: CodeInsufficientBalance, Status: status, Message: msgInsufficientBalance, Detail: detail}
	case contains("facilitator") && contains("wallet", "misconfigured", "not configured"):
		return &Error{Code: CodeFacilitatorMisconfigured, Status: status, Message: msgFacilitatorMisconfigured, Detail: detail}
	case contains("invalid signature", "signature verification", "bad signature"):
		return &Error{Code: CodeInvalidSignature, Status: status, Message: msgInvalidSignature, Detail: detail}
	case contains("expired", "timeout", "not yet valid"):
		return &Error{Code: CodeAuthorizationExpired, Status: status, Message: msgAuthorizationExpired, Detail: detail}
	case contains("revert"):
		return &Error{Code: CodeOnChainReverted, Status: status, Message: msgOnChainReverted, Detail: detail}
	default:
		return &Error{
			Code:    CodePaymentFailed,
			Status:  status,
			Message: fmt.Sprintf("Payment failed (status %d): %s", status, detail),
			Detail:  detail,
		}
	}
}
