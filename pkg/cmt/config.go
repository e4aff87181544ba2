package cmt

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// StatsFields selects the per-second timing statistics a core tracks.
type StatsFields uint8

// Statistics fields
const (
	StatsIdleTime StatsFields = 1 << iota
	StatsLongestHandler

	StatsAll = StatsIdleTime | StatsLongestHandler
)

// QueueConfig sizes the queues of one core.
type QueueConfig struct {
	High   int
	Normal int
	Low    int
	// Both is the priority whose queue PostToBothNonBlocking targets on
	// this core.
	Both Priority
}

// Config configures a System.
type Config struct {
	Queues [NumCores]QueueConfig

	// ScheduledSlots is the capacity of the scheduled message table.
	ScheduledSlots int
	// TickPeriod is the period of the recurring tick.
	TickPeriod time.Duration
	// HousekeepingTicks is the number of ticks between Housekeeping
	// messages; it must be a power of two.
	HousekeepingTicks uint32
	// IdleWait bounds how long a core parks when it has nothing to do.
	// Zero makes the loop spin.
	IdleWait time.Duration
	// PostRetries is the number of extra attempts of a blocking post.
	PostRetries int
	// NoQueueAddPanic makes a failed blocking post count and drop the
	// message instead of halting.
	NoQueueAddPanic bool
	// ValidatePayloads checks payload shapes on post.
	ValidatePayloads bool
	Stats            StatsFields

	Clock Clock
	Panic PanicFunc
}

// Board variants
const (
	VariantCtrl = "ctrl"
	VariantLeg  = "leg"
)

var defaultConfig = DefaultConfig()

var variantFlag string

func init() {
	if val := os.Getenv("CMT_VARIANT"); val != "" {
		if err := defaultConfig.ApplyVariant(val); err == nil {
			variantFlag = val
		}
	}
}

// SetupFlags registers command line flags for the default config.
func SetupFlags() {
	flag.IntVar(&defaultConfig.ScheduledSlots, "cmt-slots", defaultConfig.ScheduledSlots, "Scheduled message slots")
	flag.DurationVar(&defaultConfig.TickPeriod, "cmt-tick", defaultConfig.TickPeriod, "Recurring tick period")
	flag.DurationVar(&defaultConfig.IdleWait, "cmt-idle-wait", defaultConfig.IdleWait, "Max time a core parks when idle")
	flag.IntVar(&defaultConfig.PostRetries, "cmt-post-retries", defaultConfig.PostRetries, "Extra attempts of a blocking post")
	flag.BoolVar(&defaultConfig.NoQueueAddPanic, "cmt-no-qadd-panic", defaultConfig.NoQueueAddPanic, "Drop instead of halting when a blocking post fails")
	flag.StringVar(&variantFlag, "cmt-variant", variantFlag, "Board variant preset (ctrl|leg)")
}

// NewConfig creates a Config from the defaults and command line flags.
func NewConfig() (Config, error) {
	conf := defaultConfig
	if variantFlag != "" {
		if err := conf.ApplyVariant(variantFlag); err != nil {
			return conf, err
		}
	}
	return conf, nil
}

// DefaultConfig returns the built-in defaults, ignoring flags.
func DefaultConfig() Config {
	return Config{
		Queues:            defaultQueues(),
		ScheduledSlots:    16,
		TickPeriod:        time.Millisecond,
		HousekeepingTicks: 16,
		IdleWait:          time.Millisecond,
		PostRetries:       3,
		ValidatePayloads:  true,
		Stats:             StatsAll,
	}
}

func defaultQueues() [NumCores]QueueConfig {
	return [NumCores]QueueConfig{
		{High: 8, Normal: 64, Low: 8, Both: PriorityNormal},
		{High: 8, Normal: 64, Low: 8, Both: PriorityLow},
	}
}

// ApplyVariant applies the preset of a board variant. The control board
// has 16 scheduled slots and tracks idle time; the leg board has 32 slots
// and tracks the longest handler.
func (c *Config) ApplyVariant(name string) error {
	switch name {
	case VariantCtrl:
		c.ScheduledSlots = 16
		c.Stats = StatsIdleTime
	case VariantLeg:
		c.ScheduledSlots = 32
		c.Stats = StatsLongestHandler
	default:
		return fmt.Errorf("unknown board variant %q", name)
	}
	return nil
}

// Validate checks the config.
func (c *Config) Validate() error {
	if c.ScheduledSlots <= 0 {
		return fmt.Errorf("scheduled slots must be positive: %d", c.ScheduledSlots)
	}
	if c.TickPeriod <= 0 {
		return fmt.Errorf("tick period must be positive: %v", c.TickPeriod)
	}
	if n := c.HousekeepingTicks; n == 0 || n&(n-1) != 0 {
		return fmt.Errorf("housekeeping ticks must be a power of two: %d", n)
	}
	for n, q := range c.Queues {
		if q.High <= 0 || q.Normal <= 0 || q.Low <= 0 {
			return fmt.Errorf("core %d queue sizes must be positive: %d/%d/%d", n, q.High, q.Normal, q.Low)
		}
		if q.Both > PriorityLow {
			return fmt.Errorf("core %d broadcast priority invalid: %v", n, q.Both)
		}
	}
	if c.PostRetries < 0 {
		return fmt.Errorf("post retries must not be negative: %d", c.PostRetries)
	}
	return nil
}
