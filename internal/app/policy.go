package app

import "strings"

// Policy decides answer correctness and the points a correct answer earns.
// The penalty for a wrong answer is never policy-adjusted.
type Policy interface {
	Validate(given, correct string) bool
	Points(base int) int
}

// DefaultPolicy compares trimmed answers case-insensitively and awards the base value.
type DefaultPolicy struct{}

func (DefaultPolicy) Validate(given, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(correct))
}

func (DefaultPolicy) Points(base int) int { return base }

// StrictPolicy requires an exact, case-sensitive match.
type StrictPolicy struct{}

func (StrictPolicy) Validate(given, correct string) bool { return given == correct }

func (StrictPolicy) Points(base int) int { return base }

// MultiplierPolicy validates like DefaultPolicy and scales awarded points.
type MultiplierPolicy struct {
	Factor int
}

func (MultiplierPolicy) Validate(given, correct string) bool {
	return DefaultPolicy{}.Validate(given, correct)
}

func (p MultiplierPolicy) Points(base int) int {
	if p.Factor <= 0 {
		return base
	}
	return base * p.Factor
}

// PolicySet selects a policy per category for callers; unknown categories
// use the fallback. The engine itself never selects a policy.
type PolicySet struct {
	fallback   Policy
	categories map[string]Policy
}

// NewPolicySet returns a set whose fallback is fallback, or DefaultPolicy when nil.
func NewPolicySet(fallback Policy) *PolicySet {
	if fallback == nil {
		fallback = DefaultPolicy{}
	}
	return &PolicySet{fallback: fallback, categories: make(map[string]Policy)}
}

// Set assigns p to category.
func (s *PolicySet) Set(category string, p Policy) *PolicySet {
	s.categories[category] = p
	return s
}

// For returns the policy for category.
func (s *PolicySet) For(category string) Policy {
	if p, ok := s.categories[category]; ok {
		return p
	}
	return s.fallback
}
