package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - database.go: Database, Redis and cache configuration
//   - http.go: Ops HTTP server configuration
//   - services.go: Service mode, processor and reaper configuration
//   - generator.go: Content and image generator configuration
//   - publisher.go: WordPress publisher configuration
//   - messaging.go: AMQP audit fan-out configuration
type AppConfig struct {
	// IsDev controls development mode behavior (text logs, relaxed key checks).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// SitesEncryptionKey encrypts WordPress application passwords at rest.
	// Required for production, optional for development.
	SitesEncryptionKey string `env:"SITES_ENCRYPTION_KEY"`

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`
	Cache    CacheConfig

	OpsHTTP HTTPConfig

	// Services is a comma-delimited list of enabled services.
	Services string `env:"SERVICES" envDefault:"processor,reaper,ops-http"`

	Processor ProcessorConfig
	Reaper    ReaperConfig

	Generator GeneratorConfig `envPrefix:"GENERATOR_"`
	Publisher PublisherConfig `envPrefix:"WORDPRESS_"`
	Messaging MessagingConfig `envPrefix:"AMQP_"`

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Postgres.Sanitize()
	c.OpsHTTP.Sanitize()
	c.Processor.Sanitize()
	c.Reaper.Sanitize()
	c.Cache.Sanitize()
	c.Generator.Sanitize()
	c.Publisher.Sanitize()
	c.Messaging.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsProcessorEnabled returns true if the queue processor service is enabled.
func (c *AppConfig) IsProcessorEnabled() bool {
	return c.serviceEnabled(ServiceModeProcessor)
}

// IsReaperEnabled returns true if the reaper service is enabled.
func (c *AppConfig) IsReaperEnabled() bool {
	return c.serviceEnabled(ServiceModeReaper)
}

// IsOpsHTTPEnabled returns true if the ops HTTP server is enabled.
func (c *AppConfig) IsOpsHTTPEnabled() bool {
	return c.serviceEnabled(ServiceModeOpsHTTP)
}

func (c *AppConfig) serviceEnabled(mode ServiceMode) bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[mode]
}
