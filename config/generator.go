package config

import (
	"strings"
	"time"
)

// GeneratorConfig configures the OpenAI-compatible content and image generator.
type GeneratorConfig struct {
	BaseURL    string `env:"BASE_URL"    envDefault:"https://api.openai.com/v1"`
	APIKey     string `env:"API_KEY"`
	Model      string `env:"MODEL"       envDefault:"gpt-4o-mini"`
	ImageModel string `env:"IMAGE_MODEL" envDefault:"dall-e-3"`
	ImageSize  string `env:"IMAGE_SIZE"  envDefault:"1792x1024"`

	// ImagesEnabled turns the featured image step on.
	ImagesEnabled bool `env:"IMAGES_ENABLED" envDefault:"true"`

	Temperature float64 `env:"TEMPERATURE" envDefault:"0.7"`
	MaxTokens   int     `env:"MAX_TOKENS"  envDefault:"4096"`

	// ContentPath and ImageURLPath are JMESPath expressions applied to provider responses.
	ContentPath  string `env:"CONTENT_PATH"   envDefault:"choices[0].message.content"`
	ImageURLPath string `env:"IMAGE_URL_PATH" envDefault:"data[0].url"`

	// HTTPTimeout caps a single provider request; per-step deadlines still apply.
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"150s"`
}

// Sanitize applies guardrails to generator configuration values.
func (g *GeneratorConfig) Sanitize() {
	g.BaseURL = strings.TrimRight(strings.TrimSpace(g.BaseURL), "/")
	if g.BaseURL == "" {
		g.BaseURL = "https://api.openai.com/v1"
	}
	g.APIKey = strings.TrimSpace(g.APIKey)
	if g.Temperature < 0 {
		g.Temperature = 0
	}
	if g.Temperature > 2 {
		g.Temperature = 2
	}
	if g.MaxTokens < 256 {
		g.MaxTokens = 256
	}
	if strings.TrimSpace(g.ContentPath) == "" {
		g.ContentPath = "choices[0].message.content"
	}
	if strings.TrimSpace(g.ImageURLPath) == "" {
		g.ImageURLPath = "data[0].url"
	}
	if g.HTTPTimeout <= 0 {
		g.HTTPTimeout = 150 * time.Second
	}
}

// Configured reports whether an API key is present.
func (g *GeneratorConfig) Configured() bool {
	return g.APIKey != ""
}
