package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeProcessor runs the campaign queue processor.
	ServiceModeProcessor ServiceMode = "processor"
	// ServiceModeReaper runs the content job reaper.
	ServiceModeReaper ServiceMode = "reaper"
	// ServiceModeOpsHTTP runs the ops HTTP server (health, readiness, manual cycles).
	ServiceModeOpsHTTP ServiceMode = "ops-http"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeProcessor, ServiceModeReaper, ServiceModeOpsHTTP}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	for _, part := range strings.Split(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeProcessor, ServiceModeReaper, ServiceModeOpsHTTP:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: processor, reaper, ops-http)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// ProcessorConfig contains queue processor configuration.
type ProcessorConfig struct {
	// Interval is the time between processing cycles.
	Interval time.Duration `env:"PROCESSOR_INTERVAL" envDefault:"5m"`

	// BatchSize caps how many due campaigns one cycle picks up.
	BatchSize int `env:"PROCESSOR_BATCH_SIZE" envDefault:"50"`

	GenerationTimeout time.Duration `env:"PROCESSOR_GENERATION_TIMEOUT" envDefault:"120s"`
	ImageTimeout      time.Duration `env:"PROCESSOR_IMAGE_TIMEOUT"      envDefault:"90s"`
	PublishTimeout    time.Duration `env:"PROCESSOR_PUBLISH_TIMEOUT"    envDefault:"60s"`

	// CycleLockTTL is the lease held in Redis while a cycle runs. It must outlast the longest cycle.
	CycleLockTTL time.Duration `env:"PROCESSOR_CYCLE_LOCK_TTL" envDefault:"30m"`
}

// Sanitize applies guardrails to processor configuration values.
func (p *ProcessorConfig) Sanitize() {
	if p.Interval < 10*time.Second {
		p.Interval = 10 * time.Second
	}
	if p.BatchSize < 1 {
		p.BatchSize = 1
	}
	if p.BatchSize > 1000 {
		p.BatchSize = 1000
	}
	if p.GenerationTimeout <= 0 {
		p.GenerationTimeout = 120 * time.Second
	}
	if p.ImageTimeout <= 0 {
		p.ImageTimeout = 90 * time.Second
	}
	if p.PublishTimeout <= 0 {
		p.PublishTimeout = 60 * time.Second
	}
	if p.CycleLockTTL < time.Minute {
		p.CycleLockTTL = time.Minute
	}
}

// ReaperConfig contains content job reaper configuration.
type ReaperConfig struct {
	// Interval is the reaper tick interval.
	Interval time.Duration `env:"REAPER_INTERVAL" envDefault:"5m"`

	// StaleJobMaxAge is how long a pending or in-progress job may go without a transition
	// before it is failed. Jobs stranded by a crashed processor block their campaign until then.
	StaleJobMaxAge time.Duration `env:"REAPER_STALE_JOB_MAX_AGE" envDefault:"1h"`

	CompletedMaxAge time.Duration `env:"REAPER_COMPLETED_MAX_AGE" envDefault:"720h"` // 30 days
	FailedMaxAge    time.Duration `env:"REAPER_FAILED_MAX_AGE"    envDefault:"720h"` // 30 days
	AuditMaxAge     time.Duration `env:"REAPER_AUDIT_MAX_AGE"     envDefault:"2160h"` // 90 days

	// BatchSize is the maximum number of rows to process per operation.
	BatchSize int `env:"REAPER_BATCH_SIZE" envDefault:"1000"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	if r.Interval < 1*time.Minute {
		r.Interval = 1 * time.Minute
	}
	// Shorter than the sum of the processor step timeouts would fail live jobs.
	if r.StaleJobMaxAge < 5*time.Minute {
		r.StaleJobMaxAge = 5 * time.Minute
	}
	if r.CompletedMaxAge < 1*time.Hour {
		r.CompletedMaxAge = 1 * time.Hour
	}
	if r.FailedMaxAge < 1*time.Hour {
		r.FailedMaxAge = 1 * time.Hour
	}
	if r.AuditMaxAge < 24*time.Hour {
		r.AuditMaxAge = 24 * time.Hour
	}
	if r.BatchSize < 1 {
		r.BatchSize = 1
	}
	if r.BatchSize > 10000 {
		r.BatchSize = 10000
	}
}
