package x402

import (
	"encoding/base64"
	"encoding/json"
)

// Requirement defaults applied during normalization. The upstream facilitator
// omits these fields in some response shapes.
const (
	DefaultScheme         = "exact"
	DefaultMimeType       = "application/json"
	DefaultTimeoutSeconds = 3600
	DefaultTokenName      = "USD Coin"
	DefaultTokenVersion   = "2"
	DefaultPrimaryType    = "TransferWithAuthorization"
)

// PaymentRequirements is the canonical form of what the resource server demands
// to release a resource, normalized from one of several upstream response shapes.
// Immutable once parsed for a given attempt.
type PaymentRequirements struct {
	Scheme            string            `json:"scheme"`
	Network           string            `json:"network"`
	MaxAmountRequired string            `json:"maxAmountRequired"`
	Resource          string            `json:"resource,omitempty"`
	Description       string            `json:"description,omitempty"`
	MimeType          string            `json:"mimeType"`
	PayTo             string            `json:"payTo"`
	Asset             string            `json:"asset"`
	MaxTimeoutSeconds int               `json:"maxTimeoutSeconds"`
	Extra             RequirementsExtra `json:"extra"`
}

// RequirementsExtra carries the EIP-712 domain metadata for the payment token.
type RequirementsExtra struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	PrimaryType string `json:"primaryType,omitempty"`
}

// rawRequirements mirrors the upstream field names before defaults are applied.
type rawRequirements struct {
	Scheme            string `json:"scheme"`
	Network           string `json:"network"`
	MaxAmountRequired string `json:"maxAmountRequired"`
	Resource          string `json:"resource"`
	Description       string `json:"description"`
	MimeType          string `json:"mimeType"`
	PayTo             string `json:"payTo"`
	Asset             string `json:"asset"`
	MaxTimeoutSeconds int    `json:"maxTimeoutSeconds"`
	Extra             struct {
		Name        string `json:"name"`
		Version     string `json:"version"`
		PrimaryType string `json:"primaryType"`
	} `json:"extra"`
}

// normalize converts a raw requirements object into the canonical structure,
// filling defaults. Returns nil when the object carries none of the identifying
// payment fields (so an empty JSON object is not mistaken for a match).
func (r rawRequirements) normalize() *PaymentRequirements {
	if r.MaxAmountRequired == "" && r.PayTo == "" && r.Asset == "" {
		return nil
	}

	req := &PaymentRequirements{
		Scheme:            r.Scheme,
		Network:           r.Network,
		MaxAmountRequired: r.MaxAmountRequired,
		Resource:          r.Resource,
		Description:       r.Description,
		MimeType:          r.MimeType,
		PayTo:             r.PayTo,
		Asset:             r.Asset,
		MaxTimeoutSeconds: r.MaxTimeoutSeconds,
		Extra: RequirementsExtra{
			Name:        r.Extra.Name,
			Version:     r.Extra.Version,
			PrimaryType: r.Extra.PrimaryType,
		},
	}

	if req.Scheme == "" {
		req.Scheme = DefaultScheme
	}
	if req.MimeType == "" {
		req.MimeType = DefaultMimeType
	}
	if req.MaxTimeoutSeconds <= 0 {
		req.MaxTimeoutSeconds = DefaultTimeoutSeconds
	}
	if req.Extra.Name == "" {
		req.Extra.Name = DefaultTokenName
	}
	if req.Extra.Version == "" {
		req.Extra.Version = DefaultTokenVersion
	}

	return req
}

// shapeMatcher is a pure function mapping one known upstream response shape to
// canonical requirements. Matchers never error: malformed base64/JSON is a miss
// and the next shape is tried.
type shapeMatcher struct {
	name  string
	match func(data []byte) *PaymentRequirements
}

// bodyShapes is the fixed priority order for 402 response bodies. Adding support
// for a new facilitator shape is a one-line addition here.
var bodyShapes = []shapeMatcher{
	{"accepts", matchAccepts},
	{"paymentRequirements", matchNestedKey("paymentRequirements")},
	{"requirements", matchNestedKey("requirements")},
	{"paymentRequired", matchPaymentRequired},
}

// matchDirect treats the whole value as a requirements object.
func matchDirect(data []byte) *PaymentRequirements {
	var raw rawRequirements
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	return raw.normalize()
}

// matchAccepts handles the normalized shape {"x402Version":1,"accepts":[{...}]}.
func matchAccepts(data []byte) *PaymentRequirements {
	var wrapper struct {
		Accepts []json.RawMessage `json:"accepts"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil || len(wrapper.Accepts) == 0 {
		return nil
	}
	return matchDirect(wrapper.Accepts[0])
}

// matchNestedKey handles {"<key>":{...requirements...}}.
func matchNestedKey(key string) func([]byte) *PaymentRequirements {
	return func(data []byte) *PaymentRequirements {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil
		}
		nested, ok := wrapper[key]
		if !ok {
			return nil
		}
		return matchDirect(nested)
	}
}

// matchPaymentRequired handles {"paymentRequired": <base64 string | object>}.
func matchPaymentRequired(data []byte) *PaymentRequirements {
	var wrapper struct {
		PaymentRequired json.RawMessage `json:"paymentRequired"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil || len(wrapper.PaymentRequired) == 0 {
		return nil
	}

	// Base64-encoded JSON string variant
	var encoded string
	if err := json.Unmarshal(wrapper.PaymentRequired, &encoded); err == nil {
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil
		}
		if req := matchAccepts(decoded); req != nil {
			return req
		}
		return matchDirect(decoded)
	}

	// Inline object variant
	if req := matchAccepts(wrapper.PaymentRequired); req != nil {
		return req
	}
	return matchDirect(wrapper.PaymentRequired)
}

// ParseRequirements extracts payment requirements from a 402 response. The
// header value (base64 JSON, may be empty) takes priority; then the body shapes
// are tried in fixed order. Returns nil when nothing matched.
func ParseRequirements(headerValue string, body []byte) *PaymentRequirements {
	if headerValue != "" {
		if decoded, err := base64.StdEncoding.DecodeString(headerValue); err == nil {
			if req := matchAccepts(decoded); req != nil {
				return req
			}
			if req := matchDirect(decoded); req != nil {
				return req
			}
		}
	}

	if len(body) == 0 {
		return nil
	}
	for _, shape := range bodyShapes {
		if req := shape.match(body); req != nil {
			return req
		}
	}
	return nil
}
