// Package benchmark implements the load-generation engine: keyspace
// generation, request pacing, the worker pool, latency aggregation and
// reporting. The wire protocol and connection handling live in the client
// package.
package benchmark

import (
	"errors"
	"fmt"
	"time"
)

// Key generation modes.
const (
	KeySequential = "sequential"
	KeyRandom     = "random"
	KeyZipf       = "zipf"
	KeyFixed      = "fixed"
)

// Command types.
const (
	CommandSet    = "set"
	CommandGet    = "get"
	CommandScript = "script"
	CommandCustom = "custom"
)

const (
	// DefaultKeyspace is used when no keyspace bound is configured. The
	// original tool left this implicit; here it is an explicit, validated
	// default.
	DefaultKeyspace = 1000000

	DefaultDataSize        = 3
	DefaultReportingPeriod = time.Second
)

var errRampDirection = errors.New("qps-change must step start-qps toward end-qps")

// Config is built once at startup and shared by reference with every worker.
// No component mutates it after Validate has accepted it.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int

	Clients  int
	Requests uint64        // 0 = unbounded
	Duration time.Duration // 0 = unbounded
	DataSize int

	Command         string
	CommandTemplate string // custom mode: e.g. "INCR __key__"
	Script          string // script mode: Lua source

	KeyMode  string
	Keyspace uint64
	FixedKey string

	// Rate limiting. QPS > 0 enforces a fixed global rate. StartQPS > 0
	// enables ramping from StartQPS toward EndQPS in QPSChange increments
	// every QPSChangeInterval.
	QPS               int
	StartQPS          int
	EndQPS            int
	QPSChange         int
	QPSChangeInterval time.Duration

	UseTLS          bool
	TLSSkipVerify   bool
	Cluster         bool
	ReadFromReplica bool

	ReportingPeriod time.Duration
	JSONOutFile     string
}

// Normalize fills unset fields with their documented defaults.
func (c *Config) Normalize() {
	if c.Clients == 0 {
		c.Clients = 1
	}
	if c.DataSize == 0 {
		c.DataSize = DefaultDataSize
	}
	if c.Command == "" {
		c.Command = CommandSet
	}
	if c.KeyMode == "" {
		c.KeyMode = KeySequential
	}
	if c.Keyspace == 0 {
		c.Keyspace = DefaultKeyspace
	}
	if c.KeyMode == KeyFixed && c.FixedKey == "" {
		c.FixedKey = "key:benchmark"
	}
	if c.ReportingPeriod == 0 {
		c.ReportingPeriod = DefaultReportingPeriod
	}
}

// Validate fails fast on invalid combinations, before any worker starts.
func (c *Config) Validate() error {
	if c.Clients <= 0 {
		return fmt.Errorf("clients must be positive, got %d", c.Clients)
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %v", c.Duration)
	}
	if c.DataSize <= 0 {
		return fmt.Errorf("data-size must be positive, got %d", c.DataSize)
	}

	switch c.Command {
	case CommandSet, CommandGet:
	case CommandScript:
		if c.Script == "" {
			return errors.New("script command requires a script body")
		}
	case CommandCustom:
		if c.CommandTemplate == "" {
			return errors.New("custom command requires a command template")
		}
	default:
		return fmt.Errorf("unknown command type %q", c.Command)
	}

	switch c.KeyMode {
	case KeySequential, KeyRandom, KeyZipf:
		if c.Keyspace == 0 {
			return errors.New("keyspace size must be positive")
		}
	case KeyFixed:
		if c.FixedKey == "" {
			return errors.New("fixed key mode requires a key")
		}
	default:
		return fmt.Errorf("unknown key mode %q", c.KeyMode)
	}

	if c.QPS < 0 {
		return fmt.Errorf("qps must not be negative, got %d", c.QPS)
	}
	if c.StartQPS < 0 || c.EndQPS < 0 {
		return fmt.Errorf("start-qps and end-qps must not be negative, got %d and %d", c.StartQPS, c.EndQPS)
	}
	if c.StartQPS > 0 {
		if c.EndQPS == 0 {
			return errors.New("start-qps requires end-qps")
		}
		if c.QPSChangeInterval <= 0 {
			return errors.New("start-qps requires a positive qps-change-interval")
		}
		if c.QPSChange == 0 {
			return errors.New("start-qps requires a non-zero qps-change")
		}
		if c.EndQPS > c.StartQPS && c.QPSChange < 0 {
			return errRampDirection
		}
		if c.EndQPS < c.StartQPS && c.QPSChange > 0 {
			return errRampDirection
		}
		if c.QPS > 0 {
			return errors.New("qps and start-qps are mutually exclusive")
		}
	}
	return nil
}

// Unbounded reports whether the run has neither a request nor a duration
// limit and will only stop on external cancellation.
func (c *Config) Unbounded() bool {
	return c.Requests == 0 && c.Duration == 0
}
