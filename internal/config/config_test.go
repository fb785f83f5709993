package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"asistencia/internal/models"
)

func isolate(t *testing.T) {
	t.Helper()
	// Keep a developer's .env out of the picture.
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir() error = %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("ALERTS_CONFIG_FILE", filepath.Join(dir, "missing.yaml"))
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("ALERT_CONSECUTIVE_LIMIT", "")
	t.Setenv("ALERT_MONTHLY_LIMIT", "")

	// Unset rather than empty: an empty schedule disables the scanner.
	t.Setenv("ALERT_SCAN_SCHEDULE", "")
	if err := os.Unsetenv("ALERT_SCAN_SCHEDULE"); err != nil {
		t.Fatalf("Unsetenv() error = %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Thresholds.ConsecutiveUnjustifiedLimit != 3 {
		t.Errorf("ConsecutiveUnjustifiedLimit = %d, want 3", cfg.Thresholds.ConsecutiveUnjustifiedLimit)
	}
	if cfg.Thresholds.MonthlyUnjustifiedLimit != 5 {
		t.Errorf("MonthlyUnjustifiedLimit = %d, want 5", cfg.Thresholds.MonthlyUnjustifiedLimit)
	}
	if cfg.LookbackDays != 60 {
		t.Errorf("LookbackDays = %d, want 60", cfg.LookbackDays)
	}
	if !cfg.IsDev() {
		t.Error("IsDev() should be true by default")
	}
	if cfg.IsSheetsExportEnabled() {
		t.Error("IsSheetsExportEnabled() should be false without spreadsheet settings")
	}
	if !cfg.IsScanEnabled() {
		t.Error("IsScanEnabled() should be true with the default schedule")
	}
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "alerts.yaml")
	content := `
thresholds:
  consecutive_unjustified_limit: 4
  monthly_unjustified_limit: 8
lookback_days: 30
scan_schedule: "0 7 * * 1-5"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("ALERTS_CONFIG_FILE", path)
	t.Setenv("ALERT_MONTHLY_LIMIT", "6")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Thresholds.ConsecutiveUnjustifiedLimit != 4 {
		t.Errorf("ConsecutiveUnjustifiedLimit = %d, want 4 (from YAML)", cfg.Thresholds.ConsecutiveUnjustifiedLimit)
	}
	if cfg.Thresholds.MonthlyUnjustifiedLimit != 6 {
		t.Errorf("MonthlyUnjustifiedLimit = %d, want 6 (env override)", cfg.Thresholds.MonthlyUnjustifiedLimit)
	}
	if cfg.LookbackDays != 30 {
		t.Errorf("LookbackDays = %d, want 30", cfg.LookbackDays)
	}
	if cfg.ScanSchedule != "0 7 * * 1-5" {
		t.Errorf("ScanSchedule = %q", cfg.ScanSchedule)
	}
}

func TestLoad_ScanSchedule(t *testing.T) {
	yamlFile := func(t *testing.T, schedule string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "alerts.yaml")
		if err := os.WriteFile(path, []byte("scan_schedule: \""+schedule+"\"\n"), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		return path
	}

	tests := []struct {
		name        string
		yaml        string // scan_schedule in alerts.yaml, empty for no file
		env         *string
		want        string
		wantEnabled bool
	}{
		{name: "default", want: "0 6 * * *", wantEnabled: true},
		{name: "from yaml", yaml: "0 7 * * 1-5", want: "0 7 * * 1-5", wantEnabled: true},
		{name: "env overrides yaml", yaml: "0 7 * * 1-5", env: ptr("30 5 * * *"), want: "30 5 * * *", wantEnabled: true},
		{name: "empty env disables", env: ptr(""), want: "", wantEnabled: false},
		{name: "empty env disables over yaml", yaml: "0 7 * * 1-5", env: ptr(""), want: "", wantEnabled: false},
		{name: "blank env disables", env: ptr("   "), want: "", wantEnabled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			if tt.yaml != "" {
				t.Setenv("ALERTS_CONFIG_FILE", yamlFile(t, tt.yaml))
			}
			if tt.env != nil {
				t.Setenv("ALERT_SCAN_SCHEDULE", *tt.env)
			}

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.ScanSchedule != tt.want {
				t.Errorf("ScanSchedule = %q, want %q", cfg.ScanSchedule, tt.want)
			}
			if cfg.IsScanEnabled() != tt.wantEnabled {
				t.Errorf("IsScanEnabled() = %v, want %v", cfg.IsScanEnabled(), tt.wantEnabled)
			}
		})
	}
}

func ptr(s string) *string { return &s }

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"zero consecutive limit", "ALERT_CONSECUTIVE_LIMIT", "0", "ConsecutiveLimit"},
		{"negative monthly limit", "ALERT_MONTHLY_LIMIT", "-2", "MonthlyLimit"},
		{"zero scan concurrency", "SCAN_CONCURRENCY", "0", "ScanConcurrency"},
		{"unknown timezone", "TIMEZONE", "Mars/Olympus", "TIMEZONE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load() should fail with %s=%s", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestValidate_TLSRequiresFiles(t *testing.T) {
	cfg := &Config{
		ServerAddr:         ":3000",
		DatabaseURL:        "postgres://localhost/test",
		Thresholds:         models.DefaultThresholds(),
		ScanConcurrency:    1,
		RateLimitMax:       10,
		RecentSessionLimit: 5,
		TLSEnabled:         true,
		Timezone:           "UTC",
	}

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should require TLS files when TLS is enabled")
	}

	cfg.TLSCertFile = "cert.pem"
	cfg.TLSKeyFile = "key.pem"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadAlertsFile_Missing(t *testing.T) {
	f, err := LoadAlertsFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadAlertsFile() error = %v", err)
	}
	if f.Thresholds.Consecutive != 0 || f.Thresholds.Monthly != 0 {
		t.Errorf("LoadAlertsFile() = %+v, want zero values", f)
	}
}
