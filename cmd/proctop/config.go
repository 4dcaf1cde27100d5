package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/nhdewitt/proctop/internal/collector"
)

// options holds everything the display loop needs. Defaults come from the
// environment (optionally seeded from a .env file); flags override them.
type options struct {
	ProcRoot      string
	OSReleasePath string
	PasswdPath    string
	Interval      time.Duration
	Refresh       time.Duration
	Limit         int
	Once          bool
	JSON          bool
	Verbose       bool
}

// loadDotEnv reads .env from the working directory if present. Variables
// already set in the environment win.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "ignoring .env: %v\n", err)
	}
}

func defaultOptions(getenv func(string) string) options {
	return options{
		ProcRoot:      envOr(getenv, "PROCTOP_PROC_ROOT", collector.DefaultProcRoot),
		OSReleasePath: envOr(getenv, "PROCTOP_OS_RELEASE", collector.DefaultOSReleasePath),
		PasswdPath:    envOr(getenv, "PROCTOP_PASSWD", collector.DefaultPasswdPath),
		Interval:      envDuration(getenv, "PROCTOP_INTERVAL", collector.DefaultSampleInterval),
		Refresh:       envDuration(getenv, "PROCTOP_REFRESH", 2*time.Second),
		Limit:         envInt(getenv, "PROCTOP_LIMIT", 20),
	}
}

func (o options) validate() error {
	if o.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", o.Interval)
	}
	if o.Refresh < o.Interval {
		return fmt.Errorf("refresh (%v) must not be shorter than the sampling interval (%v)", o.Refresh, o.Interval)
	}
	if o.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", o.Limit)
	}
	return nil
}

func (o options) collectorConfig() collector.Config {
	return collector.Config{
		ProcRoot:       o.ProcRoot,
		OSReleasePath:  o.OSReleasePath,
		PasswdPath:     o.PasswdPath,
		SampleInterval: o.Interval,
	}
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(getenv func(string) string, key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envInt(getenv func(string) string, key string, fallback int) int {
	n, err := strconv.Atoi(getenv(key))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
