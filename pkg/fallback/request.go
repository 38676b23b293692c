package fallback

import (
	"encoding/json"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

const (
	// DefaultMaxTokens is used when a request does not specify max_tokens
	DefaultMaxTokens = 4000
	// DefaultTemperature is used when a request does not specify temperature
	DefaultTemperature = 0.7
)

// ModelKey is a caller facing model identifier, resolved by the registry
type ModelKey = string

// Request is a generation request with an ordered list of models,
// the first is the primary, the rest are fallbacks in priority order.
type Request struct {
	Prompt      string     `json:"prompt" yaml:"prompt"`
	Models      []ModelKey `json:"models" yaml:"models" validate:"required,min=1"`
	MaxTokens   int        `json:"max_tokens" yaml:"max_tokens" validate:"gt=0"`
	Temperature float64    `json:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	RequestID   string     `json:"request_id,omitempty" yaml:"request_id,omitempty"`
}

// RequestOption configures a Request
type RequestOption func(*Request)

// WithMaxTokens sets the max tokens
func WithMaxTokens(maxTokens int) RequestOption {
	return func(r *Request) {
		r.MaxTokens = maxTokens
	}
}

// WithTemperature sets the temperature
func WithTemperature(temperature float64) RequestOption {
	return func(r *Request) {
		r.Temperature = temperature
	}
}

// WithRequestID sets the request ID
func WithRequestID(id string) RequestOption {
	return func(r *Request) {
		r.RequestID = id
	}
}

// NewRequest returns a validated request with default generation parameters
func NewRequest(prompt string, models []ModelKey, opts ...RequestOption) (*Request, error) {
	r := &Request{
		Prompt:      prompt,
		Models:      slices.Clone(models),
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// ParseRequest decodes and validates a request from JSON,
// missing max_tokens and temperature get the defaults.
func ParseRequest(data []byte) (*Request, error) {
	r := new(Request)
	if err := json.Unmarshal(data, r); err != nil {
		return nil, errors.Wrap(err, "unable to decode request")
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate returns error if the request is invalid
func (r *Request) Validate() error {
	if r == nil {
		return errors.New("request is nil")
	}
	if err := validate.Struct(r); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// PrimaryModel returns the first model
func (r *Request) PrimaryModel() ModelKey {
	if len(r.Models) == 0 {
		return ""
	}
	return r.Models[0]
}

// FallbackModels returns the models after the primary,
// the slice is empty but not nil when there are no fallbacks.
func (r *Request) FallbackModels() []ModelKey {
	if len(r.Models) < 2 {
		return []ModelKey{}
	}
	return slices.Clone(r.Models[1:])
}

// JSON returns the request encoded as JSON
func (r *Request) JSON() ([]byte, error) {
	js, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, "unable to encode request")
	}
	return js, nil
}

// UnmarshalJSON applies the defaults for missing max_tokens and temperature
func (r *Request) UnmarshalJSON(data []byte) error {
	type plain Request
	var v struct {
		plain
		MaxTokens   *int     `json:"max_tokens"`
		Temperature *float64 `json:"temperature"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Request(v.plain)
	r.MaxTokens = DefaultMaxTokens
	if v.MaxTokens != nil {
		r.MaxTokens = *v.MaxTokens
	}
	r.Temperature = DefaultTemperature
	if v.Temperature != nil {
		r.Temperature = *v.Temperature
	}
	return nil
}
