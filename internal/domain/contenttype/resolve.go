package contenttype

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/target/pressqueue/internal/domain/model"
)

// ErrMissingVariables is returned when a template's required variables are still empty after resolution.
var ErrMissingVariables = errors.New("missing required template variables")

// Resolve merges template variables in three tiers. Later tiers override earlier ones:
//
//  1. explicit variables stored on the campaign
//  2. registry-wide defaults, then the template's own defaults
//  3. campaign fields (topic, audience, tone) when non-empty
func (r *Registry) Resolve(t *Template, c *model.Campaign) (map[string]string, error) {
	vars := make(map[string]string)
	if c != nil {
		overlay(vars, c.Variables)
	}
	overlay(vars, r.defaults)
	overlay(vars, t.Defaults)
	if c != nil {
		overlay(vars, map[string]string{
			"topic":    c.Topic,
			"audience": c.Audience,
			"tone":     c.Tone,
		})
	}

	var missing []string
	for _, name := range t.RequiredVariables {
		if strings.TrimSpace(vars[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w for %s: %s", ErrMissingVariables, t.Key, strings.Join(missing, ", "))
	}
	return vars, nil
}

// overlay copies non-blank values from src into dst.
func overlay(dst, src map[string]string) {
	for k, v := range src {
		if strings.TrimSpace(v) == "" {
			continue
		}
		dst[k] = strings.TrimSpace(v)
	}
}
