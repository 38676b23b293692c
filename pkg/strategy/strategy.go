// Package strategy provides named, ordered model lists for common
// fallback preferences.
package strategy

import (
	"slices"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/pkg/fallback"
)

// ErrUnknownStrategy is returned when a strategy name is not in the catalog
var ErrUnknownStrategy = errors.New("unknown strategy")

// Default strategy names
const (
	FirstToThirdParty = "1p_to_3p"
	QualityFirst      = "quality_first"
	SpeedFirst        = "speed_first"
	CostFirst         = "cost_first"
	AnthropicOnly     = "anthropic_only"
	OpenAIOnly        = "openai_only"
)

// Strategy is a named model order, the first model is the primary
type Strategy struct {
	Name   string              `json:"name" yaml:"name"`
	Models []fallback.ModelKey `json:"models" yaml:"models"`
}

// Catalog is a set of strategies
type Catalog struct {
	byName map[string]*Strategy
}

// NewCatalog returns a catalog, names must be unique and
// every strategy must have at least one model.
func NewCatalog(strategies ...*Strategy) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]*Strategy, len(strategies))}
	for _, s := range strategies {
		if s.Name == "" {
			return nil, errors.New("strategy name is required")
		}
		if len(s.Models) == 0 {
			return nil, errors.Newf("strategy %q has no models", s.Name)
		}
		if _, ok := c.byName[s.Name]; ok {
			return nil, errors.Newf("duplicate strategy %q", s.Name)
		}
		c.byName[s.Name] = &Strategy{Name: s.Name, Models: slices.Clone(s.Models)}
	}
	return c, nil
}

// Default returns the built-in catalog
func Default() *Catalog {
	c, err := NewCatalog(
		&Strategy{Name: FirstToThirdParty, Models: []string{"claude-3-haiku-bedrock", "claude-3-5-sonnet"}},
		&Strategy{Name: QualityFirst, Models: []string{"claude-3-5-sonnet", "gpt-4o", "claude-3-5-sonnet-bedrock", "gpt-4o-mini"}},
		&Strategy{Name: SpeedFirst, Models: []string{"claude-3-haiku", "gpt-4o-mini", "claude-3-haiku-bedrock", "claude-3-5-sonnet"}},
		&Strategy{Name: CostFirst, Models: []string{"gpt-4o-mini", "claude-3-haiku", "claude-3-haiku-bedrock", "gpt-4o"}},
		&Strategy{Name: AnthropicOnly, Models: []string{"claude-3-5-sonnet", "claude-3-haiku", "claude-3-5-sonnet-bedrock", "claude-3-haiku-bedrock"}},
		&Strategy{Name: OpenAIOnly, Models: []string{"gpt-4o", "gpt-4o-mini", "gpt-4-turbo"}},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Get returns a copy of the strategy
func (c *Catalog) Get(name string) (*Strategy, error) {
	s, ok := c.byName[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownStrategy, "%q, available: %s", name, strings.Join(c.Names(), ", "))
	}
	return &Strategy{Name: s.Name, Models: slices.Clone(s.Models)}, nil
}

// Names returns the sorted strategy names
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Request returns a request for the prompt with the strategy models
func (c *Catalog) Request(name, prompt string, opts ...fallback.RequestOption) (*fallback.Request, error) {
	s, err := c.Get(name)
	if err != nil {
		return nil, err
	}
	return fallback.NewRequest(prompt, s.Models, opts...)
}

// Validate returns error listing the strategy models unknown to the resolver
func (c *Catalog) Validate(resolver fallback.Resolver) error {
	var missing []string
	for _, name := range c.Names() {
		for _, key := range c.byName[name].Models {
			if _, err := resolver.Resolve(key); err != nil {
				missing = append(missing, name+"/"+key)
			}
		}
	}
	if len(missing) > 0 {
		return errors.Newf("strategies reference unknown models: %s", strings.Join(missing, ", "))
	}
	return nil
}
