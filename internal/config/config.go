// Package config contains utility structs/functions and types
// for validating the configurations across the library.
//
// Invalid values are never rejected: they are replaced by a fallback
// and reported as anomalies.
package config

// Config defines the minimal interface for a configuration
// in order to be validated.
type Config interface {
	// Validate checks the configuration.
	Validate(ac *AnomalyCollector)
}
