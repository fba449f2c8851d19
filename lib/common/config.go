package common

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ValentinKolb/ttlkv/lib/db/engines/birch"
)

// --------------------------------------------------------------------------
// Store configuration struct
// --------------------------------------------------------------------------

// StoreConfig holds all configuration parameters of an in-process store.
type StoreConfig struct {
	// Time the sweeper waits when no expiration is scheduled
	SweepInterval time.Duration

	// Degree of the B-tree holding the entries
	Degree int

	// Logging configuration
	LogLevel string
}

// DefaultStoreConfig returns the configuration used when no flags or environment variables are set
func DefaultStoreConfig() StoreConfig {
	opts := birch.DefaultOptions()
	return StoreConfig{
		SweepInterval: opts.SweepInterval,
		Degree:        opts.Degree,
		LogLevel:      "info",
	}
}

// Validate checks the configuration and returns all problems at once
func (c *StoreConfig) Validate() error {
	var errs []error

	if err := c.DBOptions().Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// DBOptions converts the configuration to the options of the birch engine
func (c *StoreConfig) DBOptions() *birch.DBOptions {
	return &birch.DBOptions{
		SweepInterval: c.SweepInterval,
		Degree:        c.Degree,
	}
}

// String returns a formatted string representation of the configuration
func (c *StoreConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Engine")
	addField("Type", "birch")
	addField("Sweep Interval", c.SweepInterval.String())
	addField("B-Tree Degree", fmt.Sprintf("%d", c.Degree))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
