package usecase

import (
	"fmt"
	"strings"
)

// ProviderRegistration pairs a provider with its registration tags.
// FixtureOnly marks deterministic test-data providers that must never feed
// production syncs.
type ProviderRegistration struct {
	Provider    CricketProvider
	FixtureOnly bool
}

// ProviderRegistry holds cricket providers in registration order with a
// case-insensitive name index. Iteration order never depends on map order.
type ProviderRegistry struct {
	ordered []ProviderRegistration
	byName  map[string]int
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{byName: make(map[string]int)}
}

func (r *ProviderRegistry) Register(provider CricketProvider, fixtureOnly bool) error {
	if provider == nil {
		return fmt.Errorf("%w: provider is required", ErrInvalidInput)
	}
	name := strings.TrimSpace(provider.Name())
	if name == "" {
		return fmt.Errorf("%w: provider name is required", ErrInvalidInput)
	}
	key := strings.ToLower(name)
	if _, exists := r.byName[key]; exists {
		return fmt.Errorf("%w: provider %q already registered", ErrInvalidInput, name)
	}

	r.ordered = append(r.ordered, ProviderRegistration{Provider: provider, FixtureOnly: fixtureOnly})
	r.byName[key] = len(r.ordered) - 1
	return nil
}

// Lookup resolves a provider by name, case-insensitively.
func (r *ProviderRegistry) Lookup(name string) (ProviderRegistration, bool) {
	idx, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return ProviderRegistration{}, false
	}
	return r.ordered[idx], true
}

// All returns registrations in registration order.
func (r *ProviderRegistry) All() []ProviderRegistration {
	out := make([]ProviderRegistration, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// FixtureOnlyNames returns the names of fixture-only registrations, in
// registration order. Consumers that read provider-sourced rows use it to
// keep fixture data out of production paths.
func (r *ProviderRegistry) FixtureOnlyNames() []string {
	var out []string
	for _, reg := range r.ordered {
		if reg.FixtureOnly {
			out = append(out, reg.Provider.Name())
		}
	}
	return out
}

// ProviderCandidate is one entry of a resolved priority order. Registered is
// false for names that were configured but never registered; engines record
// those as tried and move on, so a misconfigured name is visible in sync
// results instead of silently vanishing.
type ProviderCandidate struct {
	Name         string
	Registration ProviderRegistration
	Registered   bool
}

// Priority resolves the order providers are tried in: configured names
// first (trimmed, case-insensitive dedup), then any registered-but-
// unconfigured providers in registration order. Configured names with no
// registration stay in the list as unregistered candidates. This list is
// the sync engines' single source of truth for "which provider next".
func (r *ProviderRegistry) Priority(configured []string) []ProviderCandidate {
	out := make([]ProviderCandidate, 0, len(r.ordered)+len(configured))
	seen := make(map[string]struct{}, len(r.ordered)+len(configured))

	for _, name := range configured {
		trimmed := strings.TrimSpace(name)
		key := strings.ToLower(trimmed)
		if key == "" {
			continue
		}
		if _, done := seen[key]; done {
			continue
		}
		seen[key] = struct{}{}
		if idx, ok := r.byName[key]; ok {
			reg := r.ordered[idx]
			out = append(out, ProviderCandidate{
				Name:         reg.Provider.Name(),
				Registration: reg,
				Registered:   true,
			})
			continue
		}
		out = append(out, ProviderCandidate{Name: trimmed})
	}

	for _, reg := range r.ordered {
		key := strings.ToLower(reg.Provider.Name())
		if _, done := seen[key]; done {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ProviderCandidate{
			Name:         reg.Provider.Name(),
			Registration: reg,
			Registered:   true,
		})
	}

	return out
}
