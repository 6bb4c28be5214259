package retry

import (
	"fmt"
	"strings"
	"time"

	"github.com/FerroO2000/ringq/internal/config"
)

// Kind is the kind of retry policy.
type Kind uint8

const (
	// KindSpin retries immediately (busy-spin).
	KindSpin Kind = iota
	// KindYield yields the processor between attempts.
	KindYield
	// KindBackoff sleeps for an exponentially growing interval between attempts.
	KindBackoff
)

func (k Kind) String() string {
	switch k {
	case KindSpin:
		return "spin"
	case KindYield:
		return "yield"
	case KindBackoff:
		return "backoff"
	default:
		return "unknown"
	}
}

// ParseKind parses the name of a retry policy kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(name) {
	case "spin":
		return KindSpin, nil
	case "yield":
		return KindYield, nil
	case "backoff":
		return KindBackoff, nil
	default:
		return 0, fmt.Errorf("unknown retry policy %q", name)
	}
}

// Default values for the retry configuration.
const (
	DefaultKind            = KindYield
	DefaultSpinCheckEvery  = 64
	DefaultInitialInterval = time.Microsecond
	DefaultMaxInterval     = time.Millisecond
	DefaultMultiplier      = 2.0
)

// Config is the configuration of a retry policy.
type Config struct {
	// Kind is the kind of the policy.
	//
	// Default: KindYield
	Kind Kind

	// SpinCheckEvery is the number of attempts between two
	// context checks of the spin policy.
	//
	// Default: 64
	SpinCheckEvery int

	// InitialInterval is the first sleep interval of the backoff policy.
	//
	// Default: 1 microsecond
	InitialInterval time.Duration

	// MaxInterval caps the sleep interval of the backoff policy.
	//
	// Default: 1 millisecond
	MaxInterval time.Duration

	// Multiplier is the growth factor of the backoff interval.
	//
	// Default: 2
	Multiplier float64
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig() *Config {
	return &Config{
		Kind:            DefaultKind,
		SpinCheckEvery:  DefaultSpinCheckEvery,
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
		Multiplier:      DefaultMultiplier,
	}
}

// Validate checks the configuration.
func (c *Config) Validate(ac *config.AnomalyCollector) {
	config.CheckOneOf(ac, "Kind", &c.Kind, []Kind{KindSpin, KindYield, KindBackoff}, DefaultKind)

	config.CheckNotNegative(ac, "SpinCheckEvery", &c.SpinCheckEvery, DefaultSpinCheckEvery)
	config.CheckNotZero(ac, "SpinCheckEvery", &c.SpinCheckEvery, DefaultSpinCheckEvery)

	config.CheckNotNegative(ac, "InitialInterval", &c.InitialInterval, DefaultInitialInterval)
	config.CheckNotZero(ac, "InitialInterval", &c.InitialInterval, DefaultInitialInterval)

	config.CheckNotNegative(ac, "MaxInterval", &c.MaxInterval, DefaultMaxInterval)
	config.CheckNotZero(ac, "MaxInterval", &c.MaxInterval, DefaultMaxInterval)
	config.CheckNotGreaterThan(ac, "InitialInterval", "MaxInterval", &c.InitialInterval, c.MaxInterval)

	config.CheckNotLower(ac, "Multiplier", &c.Multiplier, 1, DefaultMultiplier)
}
