package word2vec

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if config.LayerSize != DefaultLayerSize {
		t.Errorf("Expected LayerSize %d, got %d", DefaultLayerSize, config.LayerSize)
	}

	if config.LearningRate != DefaultLearningRate {
		t.Errorf("Expected LearningRate %v, got %v", DefaultLearningRate, config.LearningRate)
	}

	if config.MinLearningRate != DefaultMinLearningRate {
		t.Errorf("Expected MinLearningRate %v, got %v", DefaultMinLearningRate, config.MinLearningRate)
	}

	if config.Workers != 2*runtime.NumCPU() {
		t.Errorf("Expected %d workers, got %d", 2*runtime.NumCPU(), config.Workers)
	}

	if config.TopNSize != DefaultTopNSize {
		t.Errorf("Expected TopNSize %d, got %d", DefaultTopNSize, config.TopNSize)
	}

	if config.UnknownPolicy != UnknownFold {
		t.Errorf("Expected fold policy, got %q", config.UnknownPolicy)
	}

	if err := Validate(config); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestValidate_NilConfig(t *testing.T) {
	err := Validate(nil)
	if err != ErrInvalidConfiguration {
		t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestValidate_InvalidFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero layer size", func(c *Config) { c.LayerSize = 0 }},
		{"negative layer size", func(c *Config) { c.LayerSize = -3 }},
		{"zero window", func(c *Config) { c.Window = 0 }},
		{"negative min frequency", func(c *Config) { c.MinWordFrequency = -1 }},
		{"zero learning rate", func(c *Config) { c.LearningRate = 0 }},
		{"floor above initial rate", func(c *Config) { c.MinLearningRate = c.LearningRate * 2 }},
		{"zero iterations", func(c *Config) { c.NumIterations = 0 }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"zero update interval", func(c *Config) { c.LearningRateUpdateInterval = 0 }},
		{"zero progress interval", func(c *Config) { c.ProgressInterval = 0 }},
		{"zero drain poll", func(c *Config) { c.DrainPollInterval = 0 }},
		{"zero top n", func(c *Config) { c.TopNSize = 0 }},
		{"bad unknown policy", func(c *Config) { c.UnknownPolicy = "ignore" }},
		{"bad storage type", func(c *Config) { c.Storage.Type = "redis" }},
		{"storage without path", func(c *Config) { c.Storage.Type = StorageBolt }},
		{"missing stop words file", func(c *Config) { c.StopWordsPath = "/nonexistent/stop.txt" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := Validate(config)
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestValidate_ZeroWorkersUsesDefault(t *testing.T) {
	config := DefaultConfig()
	config.Workers = 0

	if err := Validate(config); err != nil {
		t.Fatalf("Expected zero workers to be valid, got %v", err)
	}

	if got := config.workerCount(); got != 2*runtime.NumCPU() {
		t.Errorf("Expected %d workers, got %d", 2*runtime.NumCPU(), got)
	}
}

func TestLoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `word2vec:
  layer_size: 50
  window: 3
  min_word_frequency: 2
  learning_rate: 0.05
  min_learning_rate: 0.001
  num_iterations: 4
  seed: 7
  workers: 2
  drain_poll_interval: 250ms
  unknown_policy: discard
  storage:
    type: bolt
    path: /tmp/vocab.db
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config, err := LoadFromYAML(configPath)
	if err != nil {
		t.Fatalf("LoadFromYAML failed: %v", err)
	}

	if config.LayerSize != 50 || config.Window != 3 || config.NumIterations != 4 {
		t.Errorf("Unexpected config values: %+v", config)
	}

	if config.Seed != 7 {
		t.Errorf("Expected seed 7, got %d", config.Seed)
	}

	if config.DrainPollInterval != 250*time.Millisecond {
		t.Errorf("Expected 250ms drain poll, got %v", config.DrainPollInterval)
	}

	if config.UnknownPolicy != UnknownDiscard {
		t.Errorf("Expected discard policy, got %q", config.UnknownPolicy)
	}

	if config.Storage.Type != StorageBolt || config.Storage.Path != "/tmp/vocab.db" {
		t.Errorf("Unexpected storage config: %+v", config.Storage)
	}

	// Unset keys keep their defaults
	if config.TopNSize != DefaultTopNSize {
		t.Errorf("Expected default TopNSize, got %d", config.TopNSize)
	}
}

func TestLoadFromYAML_InvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("word2vec:\n  layer_size: 0\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := LoadFromYAML(configPath); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestLoadFromYAML_MissingFile(t *testing.T) {
	if _, err := LoadFromYAML("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestSaveToYAML_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	config := DefaultConfig()
	config.LayerSize = 32
	config.Seed = 99
	config.DrainPollInterval = 2 * time.Second
	config.UnknownPolicy = UnknownDiscard

	if err := SaveToYAML(configPath, config); err != nil {
		t.Fatalf("SaveToYAML failed: %v", err)
	}

	loaded, err := LoadFromYAML(configPath)
	if err != nil {
		t.Fatalf("LoadFromYAML failed: %v", err)
	}

	if *loaded != *config {
		t.Errorf("Round trip mismatch:\n got  %+v\n want %+v", loaded, config)
	}
}
