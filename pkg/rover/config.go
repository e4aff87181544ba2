package rover

import (
	"flag"
	"fmt"
	"math"
	"time"
)

// Config holds the timing of the rover input handling.
type Config struct {
	// Debounce is how long the user switch must stay low to count as a press.
	Debounce time.Duration
	// LongPress is how long a switch must be held to report a long press.
	LongPress time.Duration
	// Repeat is the interval of the repeated long press reports.
	Repeat time.Duration
	// TestPeriod is the period of the scheduled delay self tests. Zero
	// disables them.
	TestPeriod time.Duration
	// Debug logs the self test results.
	Debug bool
}

var defaultConfig = DefaultConfig()

// DefaultConfig returns the built-in timings.
func DefaultConfig() Config {
	return Config{
		Debounce:   80 * time.Millisecond,
		LongPress:  800 * time.Millisecond,
		Repeat:     250 * time.Millisecond,
		TestPeriod: 60 * time.Second,
	}
}

// SetupFlags registers command line flags for the default config.
func SetupFlags() {
	flag.DurationVar(&defaultConfig.Debounce, "rover-debounce", defaultConfig.Debounce, "User switch debounce time")
	flag.DurationVar(&defaultConfig.LongPress, "rover-long-press", defaultConfig.LongPress, "Switch long press delay")
	flag.DurationVar(&defaultConfig.Repeat, "rover-repeat", defaultConfig.Repeat, "Switch long press repeat interval")
	flag.DurationVar(&defaultConfig.TestPeriod, "rover-test-period", defaultConfig.TestPeriod, "Scheduled delay self test period, 0 to disable")
	flag.BoolVar(&defaultConfig.Debug, "rover-debug", defaultConfig.Debug, "Log self test results")
}

// NewConfig returns the config from command line flags.
func NewConfig() Config {
	return defaultConfig
}

// MaxDelay is the longest delay a scheduled message can take.
const MaxDelay = time.Duration(math.MaxInt32) * time.Millisecond

// Validate checks every timing is a delay the scheduler can take.
func (c Config) Validate() error {
	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"debounce", c.Debounce},
		{"long press", c.LongPress},
		{"repeat", c.Repeat},
		{"test period", c.TestPeriod},
	} {
		if d.value < 0 || d.value > MaxDelay {
			return fmt.Errorf("rover %s %v out of range [0, %v]", d.name, d.value, MaxDelay)
		}
	}
	return nil
}

// ms converts d to scheduler milliseconds, saturating at MaxDelay.
func ms(d time.Duration) int32 {
	if d >= MaxDelay {
		return math.MaxInt32
	}
	return int32(d / time.Millisecond)
}
