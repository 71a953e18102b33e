package word2vec

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLayerSize                  = 100
	DefaultWindow                     = 5
	DefaultMinWordFrequency           = 5
	DefaultLearningRate               = 0.025
	DefaultMinLearningRate            = 0.01
	DefaultNumIterations              = 1
	DefaultSeed                       = 123
	DefaultLearningRateUpdateInterval = 1000
	DefaultProgressInterval           = 100
	DefaultDrainPollInterval          = time.Second
	DefaultTopNSize                   = 40
)

// UnknownPolicy decides what happens to words that fall below the frequency threshold
type UnknownPolicy string

const (
	// UnknownFold adds the counts of filtered words to UnknownWord and trains absent
	// tokens as UnknownWord
	UnknownFold UnknownPolicy = "fold"

	// UnknownDiscard drops filtered counts and removes absent tokens from documents
	UnknownDiscard UnknownPolicy = "discard"
)

// Storage backends understood by the command line tool
const (
	StorageNone   = ""
	StorageBolt   = "bolt"
	StorageSQLite = "sqlite"
)

// StorageConfig selects a durable backend for the vocabulary store
type StorageConfig struct {
	Type string `mapstructure:"type" yaml:"type"`
	Path string `mapstructure:"path" yaml:"path"`
}

// Config holds the training and query parameters of a model
type Config struct {
	LayerSize        int     `mapstructure:"layer_size"         yaml:"layer_size"`
	Window           int     `mapstructure:"window"             yaml:"window"`
	MinWordFrequency int     `mapstructure:"min_word_frequency" yaml:"min_word_frequency"`
	LearningRate     float64 `mapstructure:"learning_rate"      yaml:"learning_rate"`
	MinLearningRate  float64 `mapstructure:"min_learning_rate"  yaml:"min_learning_rate"`
	NumIterations    int     `mapstructure:"num_iterations"     yaml:"num_iterations"`
	Seed             int64   `mapstructure:"seed"               yaml:"seed"`

	// SaveVocab persists the store through the configured storage once training completes
	SaveVocab bool `mapstructure:"save_vocab" yaml:"save_vocab"`

	// Workers is the number of concurrent training units. Zero means 2*runtime.NumCPU().
	Workers int `mapstructure:"workers" yaml:"workers"`

	LearningRateUpdateInterval int           `mapstructure:"learning_rate_update_interval" yaml:"learning_rate_update_interval"`
	ProgressInterval           int           `mapstructure:"progress_interval"             yaml:"progress_interval"`
	DrainPollInterval          time.Duration `mapstructure:"drain_poll_interval"           yaml:"drain_poll_interval"`
	TopNSize                   int           `mapstructure:"top_n_size"                    yaml:"top_n_size"`

	UnknownPolicy UnknownPolicy `mapstructure:"unknown_policy"  yaml:"unknown_policy"`
	StopWordsPath string        `mapstructure:"stop_words_path" yaml:"stop_words_path"`

	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LayerSize:                  DefaultLayerSize,
		Window:                     DefaultWindow,
		MinWordFrequency:           DefaultMinWordFrequency,
		LearningRate:               DefaultLearningRate,
		MinLearningRate:            DefaultMinLearningRate,
		NumIterations:              DefaultNumIterations,
		Seed:                       DefaultSeed,
		SaveVocab:                  false,
		Workers:                    2 * runtime.NumCPU(),
		LearningRateUpdateInterval: DefaultLearningRateUpdateInterval,
		ProgressInterval:           DefaultProgressInterval,
		DrainPollInterval:          DefaultDrainPollInterval,
		TopNSize:                   DefaultTopNSize,
		UnknownPolicy:              UnknownFold,
	}
}

// LoadFromYAML loads configuration from a YAML file
func LoadFromYAML(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := v.UnmarshalKey("word2vec", config); err != nil {
		return nil, err
	}

	// Validate the loaded configuration
	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveToYAML writes the configuration under the "word2vec" key, creating parent
// directories as needed
func SaveToYAML(configPath string, config *Config) error {
	if err := Validate(config); err != nil {
		return err
	}

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	data, err := yaml.Marshal(map[string]*Config{"word2vec": config})
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0o644)
}

// Validate checks if the configuration is valid
func Validate(config *Config) error {
	if config == nil {
		return ErrInvalidConfiguration
	}

	if config.LayerSize <= 0 {
		return fmt.Errorf("%w: layer_size must be positive, got %d", ErrInvalidConfiguration, config.LayerSize)
	}

	if config.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %d", ErrInvalidConfiguration, config.Window)
	}

	if config.MinWordFrequency < 0 {
		return fmt.Errorf("%w: min_word_frequency must not be negative", ErrInvalidConfiguration)
	}

	if config.LearningRate <= 0 {
		return fmt.Errorf("%w: learning_rate must be positive", ErrInvalidConfiguration)
	}

	if config.MinLearningRate < 0 || config.MinLearningRate > config.LearningRate {
		return fmt.Errorf("%w: min_learning_rate must be in [0, learning_rate]", ErrInvalidConfiguration)
	}

	if config.NumIterations <= 0 {
		return fmt.Errorf("%w: num_iterations must be positive", ErrInvalidConfiguration)
	}

	if config.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfiguration)
	}

	if config.LearningRateUpdateInterval <= 0 || config.ProgressInterval <= 0 {
		return fmt.Errorf("%w: update and progress intervals must be positive", ErrInvalidConfiguration)
	}

	if config.DrainPollInterval <= 0 {
		return fmt.Errorf("%w: drain_poll_interval must be positive", ErrInvalidConfiguration)
	}

	if config.TopNSize <= 0 {
		return fmt.Errorf("%w: top_n_size must be positive", ErrInvalidConfiguration)
	}

	switch config.UnknownPolicy {
	case UnknownFold, UnknownDiscard:
	default:
		return fmt.Errorf("%w: unknown_policy %q", ErrInvalidConfiguration, config.UnknownPolicy)
	}

	switch config.Storage.Type {
	case StorageNone:
	case StorageBolt, StorageSQLite:
		if config.Storage.Path == "" {
			return fmt.Errorf("%w: storage.path is required for %s", ErrInvalidConfiguration, config.Storage.Type)
		}
	default:
		return fmt.Errorf("%w: storage.type %q", ErrInvalidConfiguration, config.Storage.Type)
	}

	if config.StopWordsPath != "" {
		if _, err := os.Stat(config.StopWordsPath); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%w: stop words file %s not found", ErrInvalidConfiguration, config.StopWordsPath)
			}
			return err
		}
	}

	return nil
}

// workerCount resolves the zero value of Workers
func (c *Config) workerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return 2 * runtime.NumCPU()
}
