// Package x402 implements the client side of the x402 micropayment handshake:
// detect an HTTP 402, extract the payment requirements, sign an off-chain
// transfer authorization with the user's wallet, and retry the request with a
// payment proof header.
package x402

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/rekonmarkets/rekon-go/x402/evm"
)

// Wire headers of the handshake.
const (
	HeaderPayment         = "X-Payment"
	HeaderPaymentRequired = "X-Payment-Required"
)

// clockSkewTolerance backdates validAfter so a slightly-behind facilitator clock
// does not reject a fresh authorization.
const clockSkewTolerance = 60 * time.Second

// Result is the outcome of a successful fetch: the resource body, and whether a
// payment round-trip was required to obtain it.
type Result struct {
	StatusCode int
	Body       json.RawMessage
	Paid       bool
}

// Client performs x402 payment round-trips for protected resources.
//
// Every step of an attempt is terminal on failure: the client never retries a
// classified failure on its own. Re-invoking FetchWithPayment starts a fresh
// attempt with a new nonce and validity window. Concurrent attempts for the
// same resource are independent.
type Client struct {
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// withClock overrides the time source. Tests only.
func withClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a payment-negotiating client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchWithPayment performs the full handshake against url:
//
//  1. probe with no payment header; a 2xx is returned as-is (free or already paid)
//  2. on 402, parse requirements from the X-Payment-Required header or the body
//  3. build and sign a TransferWithAuthorization with the injected signer
//  4. retry with the X-Payment proof header
//  5. classify the outcome
//
// The signature step may block indefinitely on user interaction; cancel ctx to
// abandon the attempt. signer may be nil, in which case a 402 surfaces as
// WalletNotReady carrying the parsed requirements.
func (c *Client) FetchWithPayment(ctx context.Context, url string, signer evm.Signer) (*Result, error) {
	resp, body, err := c.get(ctx, url, "")
	if err != nil {
		return nil, &Error{Code: CodeRequestFailed, Message: "Request failed.", cause: err}
	}

	if resp.StatusCode != http.StatusPaymentRequired {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &Error{
				Code:    CodeRequestFailed,
				Status:  resp.StatusCode,
				Message: fmt.Sprintf("Request failed with status %d.", resp.StatusCode),
			}
		}
		return &Result{StatusCode: resp.StatusCode, Body: body}, nil
	}

	req := ParseRequirements(resp.Header.Get(HeaderPaymentRequired), body)
	if req == nil {
		return nil, newError(CodeMissingRequirements, "Server demanded payment but provided no recognizable payment requirements.")
	}
	if err := ValidateRequirements(req); err != nil {
		return nil, &Error{Code: CodeMissingRequirements, Message: "Payment requirements are incomplete.", Detail: err.Error(), cause: err}
	}

	if signer == nil || signer.Address() == "" || signer.ChainID() == nil {
		return nil, &Error{
			Code:         CodeWalletNotReady,
			Message:      "Connect a wallet to continue.",
			Requirements: req,
		}
	}

	header, err := c.authorize(ctx, req, signer)
	if err != nil {
		return nil, err
	}

	retryResp, retryBody, err := c.get(ctx, url, header)
	if err != nil {
		return nil, &Error{Code: CodeRequestFailed, Message: "Paid request failed.", Requirements: req, cause: err}
	}
	if retryResp.StatusCode >= 200 && retryResp.StatusCode < 300 {
		return &Result{StatusCode: retryResp.StatusCode, Body: retryBody, Paid: true}, nil
	}

	classified := classifyPaymentFailure(retryResp.StatusCode, retryBody)
	classified.Requirements = req
	return nil, classified
}

// authorize builds the transfer authorization, obtains the wallet signature and
// returns the encoded X-Payment header value.
func (c *Client) authorize(ctx context.Context, req *PaymentRequirements, signer evm.Signer) (string, error) {
	// The amount is consumed verbatim as a string; parse only to reject garbage,
	// never to convert (values above 2^53 must not lose precision).
	if _, ok := new(big.Int).SetString(req.MaxAmountRequired, 10); !ok {
		return "", &Error{Code: CodeMissingRequirements, Message: "Payment requirements are incomplete.", Detail: "maxAmountRequired is not an integer", Requirements: req}
	}

	nonce, err := evm.CreateNonce()
	if err != nil {
		return "", &Error{Code: CodeSignatureRejected, Message: "Could not prepare the payment authorization.", Requirements: req, cause: err}
	}

	now := c.now().Unix()
	auth := evm.TransferAuthorization{
		From:        evm.NormalizeAddress(signer.Address()),
		To:          evm.NormalizeAddress(req.PayTo),
		Value:       req.MaxAmountRequired,
		ValidAfter:  strconv.FormatInt(now-int64(clockSkewTolerance.Seconds()), 10),
		ValidBefore: strconv.FormatInt(now+int64(req.MaxTimeoutSeconds), 10),
		Nonce:       nonce,
	}

	domain := evm.TypedDataDomain{
		Name:              req.Extra.Name,
		Version:           req.Extra.Version,
		ChainID:           signer.ChainID(),
		VerifyingContract: req.Asset,
	}

	primaryType := req.Extra.PrimaryType
	if primaryType == "" {
		primaryType = DefaultPrimaryType
	}
	types := map[string][]evm.TypedDataField{
		"EIP712Domain": evm.TransferWithAuthorizationTypes["EIP712Domain"],
		primaryType:    evm.TransferWithAuthorizationTypes["TransferWithAuthorization"],
	}

	message, err := evm.AuthorizationMessage(auth)
	if err != nil {
		return "", &Error{Code: CodeSignatureRejected, Message: "Could not prepare the payment authorization.", Requirements: req, cause: err}
	}

	// May suspend until the user approves or rejects in their wallet.
	signature, err := signer.SignTypedData(ctx, domain, types, primaryType, message)
	if err != nil {
		return "", &Error{
			Code:         CodeSignatureRejected,
			Message:      "Wallet signature was not completed.",
			Requirements: req,
			cause:        err,
		}
	}

	envelope := PaymentEnvelope{
		X402Version: ProtocolVersion,
		Scheme:      req.Scheme,
		Network:     req.Network,
		Payload: PaymentPayload{
			Signature:     "0x" + hex.EncodeToString(signature),
			Authorization: auth,
		},
	}
	return EncodePaymentHeader(envelope)
}

// get issues a GET, optionally with a payment header, and drains the body.
func (c *Client) get(ctx context.Context, url, paymentHeader string) (*http.Response, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if paymentHeader != "" {
		httpReq.Header.Set(HeaderPayment, paymentHeader)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, body, nil
}
