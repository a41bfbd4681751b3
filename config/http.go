package config

import "time"

// HTTPConfig contains ops HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the ops HTTP server to.
	Addr string `env:"OPS_HTTP_ADDR" envDefault:":8081"`

	ReadTimeout  time.Duration `env:"OPS_HTTP_READ_TIMEOUT"  envDefault:"10s"`
	WriteTimeout time.Duration `env:"OPS_HTTP_WRITE_TIMEOUT" envDefault:"15m"`

	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `env:"OPS_HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.Addr == "" {
		h.Addr = ":8081"
	}
	if h.ReadTimeout <= 0 {
		h.ReadTimeout = 10 * time.Second
	}
	// A manual cycle can run for several minutes per due campaign.
	if h.WriteTimeout < time.Minute {
		h.WriteTimeout = time.Minute
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 10 * time.Second
	}
}
