package config

import (
	"fmt"
	"net"
	"strings"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// when one or more problems are found, allowing callers to inspect all issues.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateAgent(cfg, ve)
	validateProvider(cfg, ve)
	validatePricing(cfg, ve)
	validateStore(cfg, ve)
	validateHTTP(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateAgent(cfg *Config, ve *ValidationError) {
	if cfg.Agent.Persona == "" {
		ve.Add("agent.persona must not be empty")
	}
	if cfg.Agent.MaxTokens <= 0 {
		ve.Add("agent.max_tokens must be > 0")
	}
	if cfg.Agent.Timeout <= 0 {
		ve.Add("agent.timeout must be > 0")
	}
}

func validateProvider(cfg *Config, ve *ValidationError) {
	if cfg.Provider.BaseURL == "" {
		ve.Add("provider.base_url must not be empty")
	}
	if cfg.Provider.Model == "" {
		ve.Add("provider.model must not be empty")
	}
	if cfg.Provider.APIKey == "" {
		ve.Add("provider.api_key is empty (set via OPSDESK_ANTHROPIC_API_KEY)")
	}
	if cfg.Provider.RespTimeout <= 0 {
		ve.Add("provider.resp_timeout must be > 0")
	}
	if cfg.Provider.CircuitBreaker.Enabled && cfg.Provider.CircuitBreaker.MaxFailures == 0 {
		ve.Add("provider.circuit_breaker.max_failures must be > 0 when the breaker is enabled")
	}
}

func validatePricing(cfg *Config, ve *ValidationError) {
	for model, p := range cfg.Pricing.Models {
		if p.InputPerMTok < 0 || p.OutputPerMTok < 0 {
			ve.Add("pricing.models[%s]: prices must be >= 0", model)
		}
	}
}

func validateStore(cfg *Config, ve *ValidationError) {
	if cfg.Store.Path == "" {
		ve.Add("store.path must not be empty")
	}
}

func validateHTTP(cfg *Config, ve *ValidationError) {
	if cfg.HTTP.Addr == "" {
		ve.Add("http.addr must not be empty")
		return
	}
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		ve.Add("http.addr %q is not a valid host:port", cfg.HTTP.Addr)
	}
	if cfg.HTTP.RateLimitRPS < 0 {
		ve.Add("http.rate_limit_rps must be >= 0")
	}
}
