package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// settings is the validated view of Config.
type settings struct {
	ServerAddr         string `validate:"required"`
	DatabaseURL        string `validate:"required"`
	ConsecutiveLimit   int    `validate:"min=1"`
	MonthlyLimit       int    `validate:"min=1"`
	LookbackDays       int    `validate:"min=0,max=366"`
	RecentSessionLimit int    `validate:"min=0,max=100"`
	ScanConcurrency    int    `validate:"min=1,max=64"`
	RateLimitMax       int    `validate:"min=1"`
	TLSCertFile        string `validate:"required_if=TLSEnabled true"`
	TLSKeyFile         string `validate:"required_if=TLSEnabled true"`
	TLSEnabled         bool
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	s := settings{
		ServerAddr:         c.ServerAddr,
		DatabaseURL:        c.DatabaseURL,
		ConsecutiveLimit:   c.Thresholds.ConsecutiveUnjustifiedLimit,
		MonthlyLimit:       c.Thresholds.MonthlyUnjustifiedLimit,
		LookbackDays:       c.LookbackDays,
		RecentSessionLimit: c.RecentSessionLimit,
		ScanConcurrency:    c.ScanConcurrency,
		RateLimitMax:       c.RateLimitMax,
		TLSCertFile:        c.TLSCertFile,
		TLSKeyFile:         c.TLSKeyFile,
		TLSEnabled:         c.TLSEnabled,
	}

	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid configuration: TIMEZONE: %w", err)
	}

	return nil
}

// Location returns the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}
