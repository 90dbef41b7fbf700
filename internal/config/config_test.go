package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel: got %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.DataFile != "" && filepath.Base(cfg.DataFile) != dataFileName {
		t.Errorf("DataFile should end in %s, got %q", dataFileName, cfg.DataFile)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)
	content := "data_file = \"/tmp/elsewhere/tasks.csv\"\nlog_level = \"debug\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg := &Config{}
	setDefaults(cfg)
	if err := loadConfigFile(cfg, path); err != nil {
		t.Fatalf("loadConfigFile failed: %v", err)
	}

	if cfg.DataFile != "/tmp/elsewhere/tasks.csv" {
		t.Errorf("DataFile: got %q", cfg.DataFile)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q, want debug", cfg.LogLevel)
	}
}

func TestLoadConfigFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)
	if err := os.WriteFile(path, []byte("data_file = [not toml"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg := &Config{}
	if err := loadConfigFile(cfg, path); err == nil {
		t.Error("expected decode error")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}

	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"~", home},
		{"~/tasks.csv", filepath.Join(home, "tasks.csv")},
		{"/absolute/tasks.csv", "/absolute/tasks.csv"},
		{"relative/tasks.csv", "relative/tasks.csv"},
	}
	for _, tt := range tests {
		if got := expandPath(tt.input); got != tt.want {
			t.Errorf("expandPath(%q): got %q, want %q", tt.input, got, tt.want)
		}
	}
}
