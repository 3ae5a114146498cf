package signerd

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rekonmarkets/rekon-go/builder"
)

var testCreds = builder.Credentials{
	APIKey:     "11111111-2222-3333-4444-555555555555",
	Secret:     "dGhpcy1pcy1hLXRlc3Qtc2VjcmV0LWtleS0zMmJ5dGU=",
	Passphrase: "test-passphrase",
}

func testServer(authToken string) *Server {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	s := New(testCreds, authToken, log)
	s.now = func() int64 { return 1700000000 }
	return s
}

func doRequest(t *testing.T, engine *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestLiveness(t *testing.T) {
	engine := testServer("").Engine()
	w := doRequest(t, engine, http.MethodGet, "/", "", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, ServiceName, resp["service"])
	assert.NotEmpty(t, resp["timestamp"])
}

func TestSignEndpoint(t *testing.T) {
	engine := testServer("").Engine()
	w := doRequest(t, engine, http.MethodPost, "/sign",
		`{"method":"POST","path":"/order","body":"{\"tokenId\":\"123\"}"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Headers builder.AttributionHeaders `json:"headers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, testCreds.APIKey, resp.Headers.APIKey)
	assert.Equal(t, "1700000000", resp.Headers.Timestamp)
	assert.Equal(t, testCreds.Passphrase, resp.Headers.Passphrase)

	want, err := builder.Sign(testCreds.Secret, 1700000000, "POST", "/order", `{"tokenId":"123"}`)
	require.NoError(t, err)
	assert.Equal(t, want, resp.Headers.Signature)
}

func TestSignEndpointEmptyBodyField(t *testing.T) {
	engine := testServer("").Engine()
	w := doRequest(t, engine, http.MethodPost, "/sign", `{"method":"GET","path":"/orders"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Headers builder.AttributionHeaders `json:"headers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	want, err := builder.Sign(testCreds.Secret, 1700000000, "GET", "/orders", "")
	require.NoError(t, err)
	assert.Equal(t, want, resp.Headers.Signature)
}

func TestSignEndpointValidation(t *testing.T) {
	engine := testServer("").Engine()

	cases := []struct {
		name string
		body string
	}{
		{"missing method", `{"path":"/order"}`},
		{"missing path", `{"method":"POST"}`},
		{"not json", `this is not json`},
		{"empty body", ``},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, engine, http.MethodPost, "/sign", tc.body, nil)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "Invalid request", resp["error"])
		})
	}
}

func TestBearerAuth(t *testing.T) {
	t.Run("open when no token configured", func(t *testing.T) {
		engine := testServer("").Engine()
		w := doRequest(t, engine, http.MethodPost, "/sign", `{"method":"POST","path":"/order"}`, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects missing header", func(t *testing.T) {
		engine := testServer("hunter2").Engine()
		w := doRequest(t, engine, http.MethodPost, "/sign", `{"method":"POST","path":"/order"}`, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Unauthorized", resp["error"])
	})

	t.Run("rejects wrong token", func(t *testing.T) {
		engine := testServer("hunter2").Engine()
		w := doRequest(t, engine, http.MethodPost, "/sign", `{"method":"POST","path":"/order"}`,
			map[string]string{"Authorization": "Bearer wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects non-bearer scheme", func(t *testing.T) {
		engine := testServer("hunter2").Engine()
		w := doRequest(t, engine, http.MethodPost, "/sign", `{"method":"POST","path":"/order"}`,
			map[string]string{"Authorization": "Basic hunter2"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("accepts correct token", func(t *testing.T) {
		engine := testServer("hunter2").Engine()
		w := doRequest(t, engine, http.MethodPost, "/sign", `{"method":"POST","path":"/order"}`,
			map[string]string{"Authorization": "Bearer hunter2"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("liveness stays open", func(t *testing.T) {
		engine := testServer("hunter2").Engine()
		w := doRequest(t, engine, http.MethodGet, "/", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
