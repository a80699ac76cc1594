package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type GenerationConfig struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	Outputs     int     `yaml:"outputs"`
}

type Config struct {
	CacheDir          string           `yaml:"cache_dir,omitempty"`
	OutputDir         string           `yaml:"output_dir,omitempty"`
	CheckpointBaseURL string           `yaml:"checkpoint_base_url,omitempty"`
	Sample            GenerationConfig `yaml:"sample"`
	Interpolate       GenerationConfig `yaml:"interpolate"`
	Groove            GenerationConfig `yaml:"groove"`
}

func DefaultConfig() *Config {
	return &Config{
		OutputDir: "output",
		Sample: GenerationConfig{
			Model:       "cat-drums_2bar_small.lokl",
			Temperature: 1.1,
			Outputs:     2,
		},
		Interpolate: GenerationConfig{
			Model:       "cat-drums_2bar_small.hikl",
			Temperature: 0.5,
			Outputs:     6,
		},
		Groove: GenerationConfig{
			Model:       "groovae_2bar_humanize",
			Temperature: 1.0,
		},
	}
}

func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "grooves", "config.yaml"), nil
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
