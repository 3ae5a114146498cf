// Package trade sends orders to the upstream market protocol. Every request is
// stamped with builder attribution headers before it leaves the process, so
// the operator's fee share is credited for each trade.
package trade

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/rekonmarkets/rekon-go/builder"
)

// HeaderSource produces attribution headers for one outgoing request.
// Implemented locally (credentials in-process) or remotely (builder-signer
// service), so trading components never need the secret themselves.
type HeaderSource interface {
	AttributionHeaders(ctx context.Context, method, path, body string) (*builder.AttributionHeaders, error)
}

// Order is an outbound order request. Price and size are decimals so amounts
// round-trip without float drift.
type Order struct {
	TokenID    string          `json:"tokenId"`
	Side       string          `json:"side"` // BUY or SELL
	Price      decimal.Decimal `json:"price"`
	Size       decimal.Decimal `json:"size"`
	Expiration int64           `json:"expiration,omitempty"`
}

// OrderResponse is the upstream acknowledgement.
type OrderResponse struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// Client is a thin passthrough to the upstream trade API with attribution
// signing on every call.
type Client struct {
	rc      *resty.Client
	headers HeaderSource
}

// NewClient builds a trade client for the given upstream base URL.
func NewClient(baseURL string, headers HeaderSource) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")

	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err == nil && r.StatusCode() == http.StatusTooManyRequests
		})

	return &Client{rc: rc, headers: headers}
}

// PlaceOrder submits an order upstream.
func (c *Client) PlaceOrder(ctx context.Context, order Order) (*OrderResponse, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return nil, errors.Wrap(err, "marshal order")
	}

	var out OrderResponse
	resp, err := c.do(ctx, http.MethodPost, "/order", string(body), &out)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, errors.Errorf("place order: upstream returned %d: %s", resp.StatusCode(), resp.String())
	}
	return &out, nil
}

// CancelOrder cancels a resting order by id.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	payload, err := json.Marshal(map[string]string{"orderId": orderID})
	if err != nil {
		return errors.Wrap(err, "marshal cancel")
	}

	resp, err := c.do(ctx, http.MethodDelete, "/order", string(payload), nil)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return errors.Errorf("cancel order: upstream returned %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// do signs and issues one request. A fresh timestamp and request id are
// generated per call; headers are never reused.
func (c *Client) do(ctx context.Context, method, path, body string, out any) (*resty.Response, error) {
	attribution, err := c.headers.AttributionHeaders(ctx, method, path, body)
	if err != nil {
		return nil, errors.Wrap(err, "attribution headers")
	}

	req := c.rc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Request-Id", uuid.NewString()).
		SetHeaders(attribution.Map()).
		SetBody(body)
	if out != nil {
		req.SetResult(out)
	}

	var resp *resty.Response
	switch method {
	case http.MethodPost:
		resp, err = req.Post(path)
	case http.MethodDelete:
		resp, err = req.Delete(path)
	case http.MethodGet:
		resp, err = req.Get(path)
	default:
		return nil, errors.Errorf("unsupported method: %s", method)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	return resp, nil
}

// MarshalJSON renders price and size as plain decimal strings.
func (o Order) MarshalJSON() ([]byte, error) {
	type wire struct {
		TokenID    string `json:"tokenId"`
		Side       string `json:"side"`
		Price      string `json:"price"`
		Size       string `json:"size"`
		Expiration int64  `json:"expiration,omitempty"`
	}
	return json.Marshal(wire{
		TokenID:    o.TokenID,
		Side:       o.Side,
		Price:      o.Price.String(),
		Size:       o.Size.String(),
		Expiration: o.Expiration,
	})
}
