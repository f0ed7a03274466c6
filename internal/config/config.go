// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"

	"github.com/shinoda11/opsboard/internal/domain/guardrail"
	"github.com/shinoda11/opsboard/internal/domain/scoring"
	"github.com/shinoda11/opsboard/internal/domain/trend"
)

// GuardrailConfig holds the labor-rate brackets per day type.
type GuardrailConfig struct {
	Weekday guardrail.Bracket `koanf:"weekday"`
	Weekend guardrail.Bracket `koanf:"weekend"`
}

// Table converts the config shape into the evaluator's bracket table.
func (g GuardrailConfig) Table() guardrail.Table {
	return guardrail.Table{
		guardrail.Weekday: g.Weekday,
		guardrail.Weekend: g.Weekend,
	}
}

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// EventQueueSize bounds the in-memory event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ingest workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// Scoring holds the deduction policy knobs.
	Scoring scoring.Policy `koanf:"scoring"`

	// Guardrail holds the labor-rate bracket policy.
	Guardrail GuardrailConfig `koanf:"guardrail"`

	// Trend holds the demand-drop severity thresholds.
	Trend trend.Thresholds `koanf:"trend"`

	// LowScoreCut flags report days whose team score falls below it.
	LowScoreCut int `koanf:"low_score_cut"`

	// ChronicDelayCount marks a task chronic after this many delays in a week.
	ChronicDelayCount int `koanf:"chronic_delay_count"`
}

// New creates a Config populated with defaults.
func New() *Config {
	table := guardrail.DefaultTable()
	return &Config{
		LogLevel:       "info",
		Addr:           ":9080",
		EventQueueSize: 100_000,
		WorkerCount:    runtime.NumCPU() * 4,
		DedupeSize:     500_000,
		Scoring:        scoring.DefaultPolicy(),
		Guardrail: GuardrailConfig{
			Weekday: table[guardrail.Weekday],
			Weekend: table[guardrail.Weekend],
		},
		Trend:             trend.DefaultThresholds(),
		LowScoreCut:       60,
		ChronicDelayCount: 2,
	}
}
