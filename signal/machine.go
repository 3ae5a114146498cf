// Package signal drives the preview → pay → unlock workflow for a premium
// trading signal, composing the x402 payment negotiator.
package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/rekonmarkets/rekon-go/x402"
	"github.com/rekonmarkets/rekon-go/x402/evm"
)

// Phase enumerates the variants of the fetch workflow. Exactly one is active
// at a time; renderers are expected to handle every one.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseLoading         Phase = "loading"
	PhasePreview         Phase = "preview"
	PhasePaymentRequired Phase = "payment_required"
	PhaseSuccess         Phase = "success"
	PhaseError           Phase = "error"
)

// State is the tagged union the machine exposes. Only the payload matching
// Phase is meaningful.
type State struct {
	Phase        Phase
	Preview      json.RawMessage            // PhasePreview
	Requirements *x402.PaymentRequirements  // PhasePaymentRequired
	Result       json.RawMessage            // PhaseSuccess
	Message      string                     // PhaseError
}

// Negotiator is the slice of x402.Client the machine depends on.
type Negotiator interface {
	FetchWithPayment(ctx context.Context, url string, signer evm.Signer) (*x402.Result, error)
}

// Config wires a Machine.
type Config struct {
	PreviewURL string
	SignalURL  string
	Negotiator Negotiator
	Signer     evm.Signer // may be nil until a wallet connects
	HTTPClient *http.Client
	OnChange   func(State) // optional transition callback
}

// Machine owns one resource's fetch workflow. Transitions are serialized by a
// mutex; an operation that resolves after Reset is discarded (a pending wallet
// prompt cannot be forcibly cancelled, so its late resolution must be ignored
// rather than acted on).
type Machine struct {
	mu    sync.Mutex
	state State
	gen   uint64

	previewURL string
	signalURL  string
	negotiator Negotiator
	signer     evm.Signer
	httpClient *http.Client
	onChange   func(State)
}

func NewMachine(cfg Config) *Machine {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Machine{
		state:      State{Phase: PhaseIdle},
		previewURL: cfg.PreviewURL,
		signalURL:  cfg.SignalURL,
		negotiator: cfg.Negotiator,
		signer:     cfg.Signer,
		httpClient: hc,
		onChange:   cfg.OnChange,
	}
}

// State returns a snapshot of the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// BindSigner attaches a wallet once the user connects. Safe to call at any
// time; the next FetchSignal uses it.
func (m *Machine) BindSigner(s evm.Signer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signer = s
}

// Reset forces any state back to idle, discarding in-flight results.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.setLocked(State{Phase: PhaseIdle})
}

// FetchPreview loads the free partial result. It never touches the payment
// path: the preview endpoint is unprotected and a failure is just an error.
func (m *Machine) FetchPreview(ctx context.Context) State {
	gen := m.begin()

	body, err := m.plainGet(ctx, m.previewURL)
	if err != nil {
		return m.resolve(gen, State{Phase: PhaseError, Message: fmt.Sprintf("Could not load preview: %v", err)})
	}
	return m.resolve(gen, State{Phase: PhasePreview, Preview: body})
}

// FetchSignal runs the paid fetch. Outcomes:
//
//   - success with the full result
//   - payment_required when payment is still unresolved (no wallet bound yet),
//     holding the parsed requirements so the UI can prompt for a connection
//   - error with a user-facing message for every classified failure
func (m *Machine) FetchSignal(ctx context.Context) State {
	gen := m.begin()

	m.mu.Lock()
	signer := m.signer
	m.mu.Unlock()

	res, err := m.negotiator.FetchWithPayment(ctx, m.signalURL, signer)
	if err != nil {
		if pe := x402.AsError(err); pe != nil {
			if pe.Code == x402.CodeWalletNotReady {
				return m.resolve(gen, State{Phase: PhasePaymentRequired, Requirements: pe.Requirements})
			}
			return m.resolve(gen, State{Phase: PhaseError, Message: pe.Message})
		}
		return m.resolve(gen, State{Phase: PhaseError, Message: err.Error()})
	}
	return m.resolve(gen, State{Phase: PhaseSuccess, Result: res.Body})
}

// begin transitions to loading and returns the generation the operation
// belongs to.
func (m *Machine) begin() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(State{Phase: PhaseLoading})
	return m.gen
}

// resolve applies next unless the machine was reset since the operation began,
// in which case the result is discarded and the current state returned.
func (m *Machine) resolve(gen uint64, next State) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return m.state
	}
	m.setLocked(next)
	return m.state
}

func (m *Machine) setLocked(next State) {
	m.state = next
	if m.onChange != nil {
		m.onChange(next)
	}
}

func (m *Machine) plainGet(ctx context.Context, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
