package trade

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rekonmarkets/rekon-go/builder"
)

var testCreds = builder.Credentials{
	APIKey:     "11111111-2222-3333-4444-555555555555",
	Secret:     "dGhpcy1pcy1hLXRlc3Qtc2VjcmV0LWtleS0zMmJ5dGU=",
	Passphrase: "test-passphrase",
}

func fixedLocalSource() *LocalHeaderSource {
	src := NewLocalHeaderSource(testCreds)
	src.now = func() int64 { return 1700000000 }
	return src
}

func TestOrderMarshalJSON(t *testing.T) {
	order := Order{
		TokenID:    "7128391",
		Side:       "BUY",
		Price:      decimal.RequireFromString("0.63"),
		Size:       decimal.RequireFromString("150.5"),
		Expiration: 1700003600,
	}

	data, err := json.Marshal(order)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"tokenId": "7128391",
		"side": "BUY",
		"price": "0.63",
		"size": "150.5",
		"expiration": 1700003600
	}`, string(data))
}

func TestPlaceOrderAttribution(t *testing.T) {
	var gotBody []byte
	var gotHeaders http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"orderId":"ord-1","status":"live"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, fixedLocalSource())
	resp, err := client.PlaceOrder(context.Background(), Order{
		TokenID: "7128391",
		Side:    "BUY",
		Price:   decimal.RequireFromString("0.63"),
		Size:    decimal.RequireFromString("150.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", resp.OrderID)
	assert.Equal(t, "live", resp.Status)

	// The attribution signature must cover exactly the body that was sent.
	wantSig, err := builder.Sign(testCreds.Secret, 1700000000, http.MethodPost, "/order", string(gotBody))
	require.NoError(t, err)

	assert.Equal(t, testCreds.APIKey, gotHeaders.Get(builder.HeaderAPIKey))
	assert.Equal(t, "1700000000", gotHeaders.Get(builder.HeaderTimestamp))
	assert.Equal(t, testCreds.Passphrase, gotHeaders.Get(builder.HeaderPassphrase))
	assert.Equal(t, wantSig, gotHeaders.Get(builder.HeaderSignature))
	assert.NotEmpty(t, gotHeaders.Get("X-Request-Id"))
}

func TestPlaceOrderUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"error":"market closed"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, fixedLocalSource())
	_, err := client.PlaceOrder(context.Background(), Order{TokenID: "1", Side: "BUY"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestCancelOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.NotEmpty(t, r.Header.Get(builder.HeaderSignature))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"orderId":"ord-1"}`, string(body))
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, fixedLocalSource())
	require.NoError(t, client.CancelOrder(context.Background(), "ord-1"))
}

func TestRemoteHeaderSource(t *testing.T) {
	// Fake builder-signer that verifies the bearer token and sign request shape.
	signer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sign", r.URL.Path)
		assert.Equal(t, "Bearer hunter2", r.Header.Get("Authorization"))

		var req struct {
			Method string `json:"method"`
			Path   string `json:"path"`
			Body   string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "POST", req.Method)
		assert.Equal(t, "/order", req.Path)

		headers, err := builder.Headers(testCreds, 1700000000, req.Method, req.Path, req.Body)
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"headers": headers})
	}))
	defer signer.Close()

	src := NewRemoteHeaderSource(signer.URL, "hunter2")
	headers, err := src.AttributionHeaders(context.Background(), "POST", "/order", `{"tokenId":"1"}`)
	require.NoError(t, err)

	want, err := builder.Sign(testCreds.Secret, 1700000000, "POST", "/order", `{"tokenId":"1"}`)
	require.NoError(t, err)
	assert.Equal(t, want, headers.Signature)
	assert.Equal(t, testCreds.APIKey, headers.APIKey)
}

func TestRemoteHeaderSourceErrors(t *testing.T) {
	t.Run("unauthorized", func(t *testing.T) {
		signer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"Unauthorized"}`)
		}))
		defer signer.Close()

		src := NewRemoteHeaderSource(signer.URL, "")
		_, err := src.AttributionHeaders(context.Background(), "POST", "/order", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})

	t.Run("unreachable", func(t *testing.T) {
		src := NewRemoteHeaderSource("http://127.0.0.1:1", "")
		_, err := src.AttributionHeaders(context.Background(), "POST", "/order", "")
		assert.Error(t, err)
	})
}
