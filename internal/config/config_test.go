package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Client.BaseURL != "http://localhost:8080" {
		t.Errorf("client.base_url: got %q", cfg.Client.BaseURL)
	}
	if cfg.Client.PollInterval != 5*time.Second {
		t.Errorf("client.poll_interval: got %v, want 5s", cfg.Client.PollInterval)
	}
	if cfg.Search.DefaultLimit != 10 || cfg.Search.MaxLimit != 100 {
		t.Errorf("search limits: got %d/%d, want 10/100", cfg.Search.DefaultLimit, cfg.Search.MaxLimit)
	}
	if cfg.Search.DefaultThreshold != 0.2 {
		t.Errorf("search.default_threshold: got %g, want 0.2", cfg.Search.DefaultThreshold)
	}
	if cfg.Upload.MaxSizeBytes != 1<<30 {
		t.Errorf("upload.max_size_bytes: got %d, want %d", cfg.Upload.MaxSizeBytes, int64(1)<<30)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("database.driver: got %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Export.Workers != 2 {
		t.Errorf("export.workers: got %d, want 2", cfg.Export.Workers)
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("API_URL", "https://api.example.com")
	t.Setenv("DATABASE_DRIVER", "postgres")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Client.BaseURL != "https://api.example.com" {
		t.Errorf("client.base_url: got %q", cfg.Client.BaseURL)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("database.driver: got %q, want postgres", cfg.Database.Driver)
	}
}

func TestDatabaseDSN(t *testing.T) {
	testCases := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "sqlite uses path",
			cfg:  DatabaseConfig{Driver: "sqlite", Path: "./data/app.db"},
			want: "./data/app.db",
		},
		{
			name: "postgres builds keyword dsn",
			cfg: DatabaseConfig{
				Driver: "postgres", Host: "db", Port: 5432,
				User: "app", Password: "secret", Name: "drivesearch", SSLMode: "disable",
			},
			want: "host=db port=5432 user=app password=secret dbname=drivesearch sslmode=disable",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.DSN(); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
