package ratelimit

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	FreeTier = "Free Tier"
	Tier1    = "Tier 1"

	// DefaultKey holds a tier's rate for models it does not list.
	DefaultKey = "default"
)

// Policy maps tier name to model display label to requests per minute.
type Policy map[string]map[string]int

// DefaultPolicy returns the published Gemini quotas.
func DefaultPolicy() Policy {
	return Policy{
		FreeTier: {DefaultKey: 15, "Gemini 1.5 Flash": 15, "Gemini 1.5 Pro": 2},
		Tier1:    {DefaultKey: 100, "Gemini 1.5 Flash": 1000, "Gemini 1.5 Pro": 10},
	}
}

// RPM looks up the rate for a model. Unknown tiers use the free tier and
// unlisted models use the tier default. Zero or less means unlimited.
func (p Policy) RPM(tier, label string) int {
	rates, ok := p[tier]
	if !ok {
		rates = p[FreeTier]
	}
	if rpm, ok := rates[label]; ok {
		return rpm
	}
	return rates[DefaultKey]
}

// Tiers lists the configured tier names.
func (p Policy) Tiers() []string {
	out := make([]string, 0, len(p))
	for name := range p {
		out = append(out, name)
	}
	return out
}

// LoadPolicy reads a YAML document of the form
//
//	Free Tier:
//	  default: 15
//	  Gemini 1.5 Pro: 2
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse rate limits %s: %w", path, err)
	}
	if _, ok := p[FreeTier]; !ok {
		return nil, fmt.Errorf("rate limits %s: tier %q is required", path, FreeTier)
	}
	return p, nil
}
