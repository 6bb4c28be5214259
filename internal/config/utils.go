package config

import (
	"fmt"
	"slices"
)

type ordered interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// CheckNotNegative checks that the value is not negative.
// If it is, an anomaly is added to the anomaly collector and the value is set to the fallback.
func CheckNotNegative[T ordered](ac *AnomalyCollector, field string, actual *T, fallback T) {
	val := *actual
	if val < 0 {
		ac.add(field, "cannot be negative", val, fallback)
		*actual = fallback
	}
}

// CheckNotZero checks that the value is not zero.
// If it is, an anomaly is added to the anomaly collector and the value is set to the fallback.
func CheckNotZero[T ordered](ac *AnomalyCollector, field string, actual *T, fallback T) {
	val := *actual
	if val == 0 {
		ac.add(field, "cannot be zero", val, fallback)
		*actual = fallback
	}
}

// CheckNotLower checks that the value is not lower than the minimum.
// If it is, an anomaly is added to the anomaly collector and the value is set to the fallback.
func CheckNotLower[T ordered](ac *AnomalyCollector, field string, actual *T, minimum, fallback T) {
	val := *actual
	if val < minimum {
		ac.add(field, fmt.Sprintf("cannot be lower than %v", minimum), val, fallback)
		*actual = fallback
	}
}

// CheckNotHigher checks that the value is not higher than the maximum.
// If it is, an anomaly is added to the anomaly collector and the value is set to the fallback.
func CheckNotHigher[T ordered](ac *AnomalyCollector, field string, actual *T, maximum, fallback T) {
	val := *actual
	if val > maximum {
		ac.add(field, fmt.Sprintf("cannot be higher than %v", maximum), val, fallback)
		*actual = fallback
	}
}

// CheckNotNil checks that the value (e.g. an interface or a pointer) is not nil.
// If it is, an anomaly is added to the anomaly collector and the value is set to the fallback.
func CheckNotNil[T comparable](ac *AnomalyCollector, field string, actual *T, fallback T) {
	var zero T
	if *actual == zero {
		ac.add(field, "cannot be nil", nil, fallback)
		*actual = fallback
	}
}

// CheckNotGreaterThan checks that the value is not greater than the value of the target field.
// If it is, an anomaly is added to the anomaly collector and the value is set to the target.
func CheckNotGreaterThan[T ordered](ac *AnomalyCollector, field, targetField string, actual *T, target T) {
	val := *actual
	if val > target {
		ac.add(field, fmt.Sprintf("cannot be greater than %q", targetField), val, target)
		*actual = target
	}
}

// CheckOneOf checks that the value is one of the allowed values.
// If it is not, an anomaly is added to the anomaly collector and the value is set to the fallback.
func CheckOneOf[T comparable](ac *AnomalyCollector, field string, actual *T, allowed []T, fallback T) {
	val := *actual
	if !slices.Contains(allowed, val) {
		ac.add(field, fmt.Sprintf("must be one of %v", allowed), val, fallback)
		*actual = fallback
	}
}
