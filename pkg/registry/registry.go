package registry

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/pkg/llms"
	"github.com/go-playground/validator/v10"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrUnknownModel is returned when a model key is not registered
var ErrUnknownModel = errors.New("unknown model")

// Pricing is the list price in USD per one million tokens
type Pricing struct {
	InputPerMillion  float64 `json:"input_per_million" yaml:"input_per_million" toml:"input_per_million" validate:"gte=0"`
	OutputPerMillion float64 `json:"output_per_million" yaml:"output_per_million" toml:"output_per_million" validate:"gte=0"`
}

// Cost returns the cost of the usage
func (p *Pricing) Cost(u *llms.Usage) float64 {
	return (float64(u.InputTokens)*p.InputPerMillion + float64(u.OutputTokens)*p.OutputPerMillion) / 1_000_000
}

// Entry describes a registered model
type Entry struct {
	// Key is the caller facing model key
	Key string `json:"key" yaml:"key" toml:"key" validate:"required"`
	// ModelID is the provider model id in provider/model form
	ModelID string `json:"model_id" yaml:"model_id" toml:"model_id" validate:"required"`
	// Name is the display name, defaults to Key
	Name string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	// Pricing is optional
	Pricing *Pricing `json:"pricing,omitempty" yaml:"pricing,omitempty" toml:"pricing,omitempty" validate:"omitempty"`
}

// DisplayName returns Name, or Key when not set
func (e *Entry) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Key
}

// Registry is an ordered table of model entries
type Registry struct {
	entries   *orderedmap.OrderedMap[string, *Entry]
	byModelID map[string]*Entry
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// New returns a registry with entries in the given order.
// Keys must be unique, provider model ids must have a known provider.
func New(entries []*Entry) (*Registry, error) {
	r := &Registry{
		entries:   orderedmap.New[string, *Entry](len(entries)),
		byModelID: make(map[string]*Entry, len(entries)),
	}
	for i, e := range entries {
		if e == nil {
			return nil, errors.Newf("entry %d is nil", i)
		}
		if err := validate.Struct(e); err != nil {
			return nil, errors.Wrapf(err, "invalid model entry %d", i)
		}
		if _, _, err := llms.SplitModelID(e.ModelID); err != nil {
			return nil, errors.WithMessagef(err, "model %q", e.Key)
		}
		c := *e
		if _, present := r.entries.Set(c.Key, &c); present {
			return nil, errors.Newf("duplicate model key %q", c.Key)
		}
		if _, ok := r.byModelID[c.ModelID]; !ok {
			r.byModelID[c.ModelID] = &c
		}
	}
	return r, nil
}

// Resolve returns the provider model id for the key
func (r *Registry) Resolve(key string) (string, error) {
	e, ok := r.entries.Get(key)
	if !ok {
		return "", errors.Wrapf(ErrUnknownModel, "model %q", key)
	}
	return e.ModelID, nil
}

// DisplayName returns the display name for the key,
// or the key itself when the key has no registered name.
func (r *Registry) DisplayName(key string) string {
	if e, ok := r.entries.Get(key); ok {
		return e.DisplayName()
	}
	return key
}

// Lookup returns a copy of the entry for the key
func (r *Registry) Lookup(key string) (*Entry, bool) {
	e, ok := r.entries.Get(key)
	if !ok {
		return nil, false
	}
	c := *e
	return &c, true
}

// Keys returns the registered keys in configuration order
func (r *Registry) Keys() []string {
	keys := make([]string, 0, r.entries.Len())
	for pair := r.entries.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Entries returns copies of the registered entries in configuration order
func (r *Registry) Entries() []*Entry {
	list := make([]*Entry, 0, r.entries.Len())
	for pair := r.entries.Oldest(); pair != nil; pair = pair.Next() {
		c := *pair.Value
		list = append(list, &c)
	}
	return list
}

// Len returns the number of registered models
func (r *Registry) Len() int {
	return r.entries.Len()
}

// Price returns pricing for a provider model id
func (r *Registry) Price(providerModelID string) (*Pricing, bool) {
	e, ok := r.byModelID[strings.TrimSpace(providerModelID)]
	if !ok || e.Pricing == nil {
		return nil, false
	}
	p := *e.Pricing
	return &p, true
}

// Cost returns the cost of the usage for a provider model id,
// or nil when the usage or the price is unknown.
func (r *Registry) Cost(providerModelID string, usage *llms.Usage) *float64 {
	if usage == nil {
		return nil
	}
	p, ok := r.Price(providerModelID)
	if !ok {
		return nil
	}
	cost := p.Cost(usage)
	return &cost
}
