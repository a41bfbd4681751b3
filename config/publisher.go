package config

import (
	"strings"
	"time"
)

// PublisherConfig configures the WordPress REST publisher.
type PublisherConfig struct {
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"45s"`
	UserAgent   string        `env:"USER_AGENT"   envDefault:"pressqueue/1.0"`

	// ExcerptWords is the length of the excerpt derived from the generated body.
	ExcerptWords int `env:"EXCERPT_WORDS" envDefault:"55"`
}

// Sanitize applies guardrails to publisher configuration values.
func (p *PublisherConfig) Sanitize() {
	if p.HTTPTimeout <= 0 {
		p.HTTPTimeout = 45 * time.Second
	}
	if p.UserAgent = strings.TrimSpace(p.UserAgent); p.UserAgent == "" {
		p.UserAgent = "pressqueue/1.0"
	}
	if p.ExcerptWords < 10 {
		p.ExcerptWords = 10
	}
}
