package config

import (
	"github.com/FerroO2000/ringq/internal"
)

// Validator is an utility struct for validating a configuration.
type Validator struct {
	tel *internal.Telemetry
}

// NewValidator returns a new validator that reports
// the anomalies through the given telemetry.
func NewValidator(tel *internal.Telemetry) *Validator {
	return &Validator{
		tel: tel,
	}
}

// Validate validates the given configuration and returns
// the number of anomalies found.
func (v *Validator) Validate(cfg Config) int {
	ac := NewAnomalyCollector()
	cfg.Validate(ac)

	for anomaly := range ac.All() {
		v.handleAnomaly(anomaly)
	}

	return ac.Len()
}

func (v *Validator) handleAnomaly(an *Anomaly) {
	v.tel.LogWarn("config anomaly",
		"field", an.Field, "reason", an.Reason,
		"actual", an.Actual, "fallback", an.Fallback)
}
