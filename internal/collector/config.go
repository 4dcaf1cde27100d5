package collector

import (
	"log"
	"time"
)

const (
	DefaultProcRoot       = "/proc"
	DefaultOSReleasePath  = "/etc/os-release"
	DefaultPasswdPath     = "/etc/passwd"
	DefaultSampleInterval = 500 * time.Millisecond
)

// clkTck is the fallback tick rate when sysconf is unavailable.
var clkTck int64 = 100

// Config locates the files the collector reads. Relative paths are
// resolved under ProcRoot; OSReleasePath and PasswdPath are normally
// absolute.
type Config struct {
	ProcRoot       string
	OSReleasePath  string
	PasswdPath     string
	ClockTicks     int64
	SampleInterval time.Duration
	Logger         *log.Logger
}

// DefaultConfig returns a Config for the local host.
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.ProcRoot == "" {
		c.ProcRoot = DefaultProcRoot
	}
	if c.OSReleasePath == "" {
		c.OSReleasePath = DefaultOSReleasePath
	}
	if c.PasswdPath == "" {
		c.PasswdPath = DefaultPasswdPath
	}
	if c.ClockTicks <= 0 {
		c.ClockTicks = clkTck
	}
	if c.SampleInterval <= 0 {
		c.SampleInterval = DefaultSampleInterval
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return c
}

func (c Config) logf(format string, args ...any) {
	c.Logger.Printf(format, args...)
}
