package contenttype

import (
	"math/rand/v2"
	"sync"
)

// Selector picks a template for a campaign attempt.
type Selector struct {
	registry *Registry

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSelector returns a selector over reg. A nil rnd uses a randomly seeded source.
func NewSelector(reg *Registry, rnd *rand.Rand) *Selector {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // template choice is not security sensitive
	}
	return &Selector{registry: reg, rnd: rnd}
}

// Pick chooses uniformly among the configured keys the registry knows about.
// When none are configured (or none are known) it chooses among every template.
func (s *Selector) Pick(configured []string) *Template {
	candidates := make([]*Template, 0, len(configured))
	seen := make(map[Key]bool, len(configured))
	for _, k := range configured {
		t, ok := s.registry.Get(k)
		if !ok || seen[t.Key] {
			continue
		}
		seen[t.Key] = true
		candidates = append(candidates, t)
	}
	if len(candidates) == 0 {
		candidates = s.registry.All()
	}

	s.mu.Lock()
	i := s.rnd.IntN(len(candidates))
	s.mu.Unlock()
	return candidates[i]
}
