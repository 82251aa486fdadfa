package config

import (
	"os"
	"path/filepath"
	"testing"

	"zapis/internal/models"
)

func TestLoadConfig(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
database:
  path: "test.db"
booking:
  timezone: "Europe/Moscow"
  granularity_minutes: 30
services:
  - id: 1
    name: "Стрижка"
    duration_minutes: 45
    price_cents: 150000
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database.Path != "test.db" {
		t.Errorf("expected database path test.db, got %s", cfg.Database.Path)
	}

	if cfg.Booking.GranularityMinutes != 30 {
		t.Errorf("expected granularity 30, got %d", cfg.Booking.GranularityMinutes)
	}

	if len(cfg.Services) != 1 || cfg.Services[0].ID != 1 {
		t.Errorf("expected 1 service with ID 1")
	}

	loc, err := cfg.Booking.Location()
	if err != nil {
		t.Fatalf("failed to load timezone: %v", err)
	}
	if loc.String() != "Europe/Moscow" {
		t.Errorf("expected Europe/Moscow, got %s", loc)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
database:
  path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default http port 8080, got %d", cfg.API.HTTP.Port)
	}
	if cfg.Booking.GranularityMinutes != models.DefaultGranularityMinutes {
		t.Errorf("expected default granularity, got %d", cfg.Booking.GranularityMinutes)
	}
	if cfg.Booking.CodeLength != models.DefaultCodeLength {
		t.Errorf("expected default code length, got %d", cfg.Booking.CodeLength)
	}
	if cfg.Booking.CodeTTL().Seconds() != float64(models.DefaultCodeTTL) {
		t.Errorf("expected default code TTL, got %v", cfg.Booking.CodeTTL())
	}
	if cfg.API.Auth.HeaderAPIKey != "x-api-key" {
		t.Errorf("expected default api key header, got %s", cfg.API.Auth.HeaderAPIKey)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Booking:  BookingConfig{GranularityMinutes: 15},
				Services: []models.Service{{ID: 1, Name: "Стрижка", DurationMinutes: 45}},
			},
			wantErr: false,
		},
		{
			name: "missing database path",
			cfg: Config{
				Booking: BookingConfig{GranularityMinutes: 15},
			},
			wantErr: true,
		},
		{
			name: "bad timezone",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Booking:  BookingConfig{GranularityMinutes: 15, Timezone: "Mars/Olympus"},
			},
			wantErr: true,
		},
		{
			name: "granularity too small",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Booking:  BookingConfig{GranularityMinutes: 1},
			},
			wantErr: true,
		},
		{
			name: "duplicate service id",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Booking:  BookingConfig{GranularityMinutes: 15},
				Services: []models.Service{
					{ID: 1, Name: "Стрижка", DurationMinutes: 45},
					{ID: 1, Name: "Бритьё", DurationMinutes: 30},
				},
			},
			wantErr: true,
		},
		{
			name: "zero duration service",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Booking:  BookingConfig{GranularityMinutes: 15},
				Services: []models.Service{{ID: 1, Name: "Стрижка"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
