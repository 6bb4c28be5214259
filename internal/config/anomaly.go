package config

import (
	"fmt"
	"iter"
	"slices"
)

// Anomaly describes a configuration field that was replaced by a fallback value.
type Anomaly struct {
	Field    string
	Reason   string
	Actual   any
	Fallback any
}

func (a *Anomaly) String() string {
	return fmt.Sprintf("%s %s (actual: %v, fallback: %v)", a.Field, a.Reason, a.Actual, a.Fallback)
}

// AnomalyCollector is an utility struct for collecting anomalies.
type AnomalyCollector struct {
	prefix    string
	anomalies *[]*Anomaly
}

// NewAnomalyCollector returns an empty anomaly collector.
func NewAnomalyCollector() *AnomalyCollector {
	return &AnomalyCollector{
		anomalies: &[]*Anomaly{},
	}
}

// Nested returns a collector that shares the anomalies of ac
// and prefixes every field with the given name.
// It is used to validate nested configurations.
func (ac *AnomalyCollector) Nested(name string) *AnomalyCollector {
	prefix := name
	if ac.prefix != "" {
		prefix = ac.prefix + "." + name
	}

	return &AnomalyCollector{
		prefix:    prefix,
		anomalies: ac.anomalies,
	}
}

func (ac *AnomalyCollector) add(field, reason string, actual, fallback any) {
	if ac.prefix != "" {
		field = ac.prefix + "." + field
	}

	*ac.anomalies = append(*ac.anomalies, &Anomaly{
		Field:    field,
		Reason:   reason,
		Actual:   actual,
		Fallback: fallback,
	})
}

// Len returns the number of collected anomalies.
func (ac *AnomalyCollector) Len() int {
	return len(*ac.anomalies)
}

// All iterates over the collected anomalies.
func (ac *AnomalyCollector) All() iter.Seq[*Anomaly] {
	return slices.Values(*ac.anomalies)
}
