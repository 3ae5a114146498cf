package trade

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/rekonmarkets/rekon-go/builder"
)

// LocalHeaderSource signs attribution headers in-process. Used by backend
// components that hold the builder credentials directly.
type LocalHeaderSource struct {
	creds builder.Credentials
	now   func() int64
}

func NewLocalHeaderSource(creds builder.Credentials) *LocalHeaderSource {
	return &LocalHeaderSource{creds: creds, now: builder.Now}
}

func (l *LocalHeaderSource) AttributionHeaders(_ context.Context, method, path, body string) (*builder.AttributionHeaders, error) {
	return builder.Headers(l.creds, l.now(), method, path, body)
}

// RemoteHeaderSource delegates signing to the builder-signer service, so the
// secret never reaches this process.
type RemoteHeaderSource struct {
	rc        *resty.Client
	authToken string
}

func NewRemoteHeaderSource(signerURL, authToken string) *RemoteHeaderSource {
	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(signerURL, "/")).
		SetTimeout(10 * time.Second)
	return &RemoteHeaderSource{rc: rc, authToken: authToken}
}

func (r *RemoteHeaderSource) AttributionHeaders(ctx context.Context, method, path, body string) (*builder.AttributionHeaders, error) {
	payload, err := json.Marshal(map[string]string{
		"method": method,
		"path":   path,
		"body":   body,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal sign request")
	}

	req := r.rc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload)
	if r.authToken != "" {
		req.SetHeader("Authorization", "Bearer "+r.authToken)
	}

	var out struct {
		Headers builder.AttributionHeaders `json:"headers"`
	}
	resp, err := req.SetResult(&out).Post("/sign")
	if err != nil {
		return nil, errors.Wrap(err, "call builder-signer")
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, errors.Errorf("builder-signer returned %d: %s", resp.StatusCode(), resp.String())
	}
	return &out.Headers, nil
}
