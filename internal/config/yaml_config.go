package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// AlertsFile represents the structure of the alerts.yaml file.
// Zero values leave the env defaults untouched.
type AlertsFile struct {
	Thresholds struct {
		Consecutive int `yaml:"consecutive_unjustified_limit"`
		Monthly     int `yaml:"monthly_unjustified_limit"`
	} `yaml:"thresholds"`
	LookbackDays       int    `yaml:"lookback_days"`
	RecentSessionLimit int    `yaml:"recent_session_limit"`
	ScanSchedule       string `yaml:"scan_schedule"`
}

// LoadAlertsFile loads the alerts YAML file.
// Returns an empty config without error if the file doesn't exist.
func LoadAlertsFile(path string) (*AlertsFile, error) {
	var cfg AlertsFile
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return &cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (f *AlertsFile) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Thresholds.Consecutive != 0 {
		cfg.Thresholds.ConsecutiveUnjustifiedLimit = f.Thresholds.Consecutive
	}
	if f.Thresholds.Monthly != 0 {
		cfg.Thresholds.MonthlyUnjustifiedLimit = f.Thresholds.Monthly
	}
	if f.LookbackDays != 0 {
		cfg.LookbackDays = f.LookbackDays
	}
	if f.RecentSessionLimit != 0 {
		cfg.RecentSessionLimit = f.RecentSessionLimit
	}
	if f.ScanSchedule != "" {
		cfg.ScanSchedule = f.ScanSchedule
	}
}
