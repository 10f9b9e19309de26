package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// NewFileLoader creates a loader that reads an explicit config file instead
// of searching .openvulns/ under rootDir.
func NewFileLoader(rootDir, configFile string) Loader {
	return &loader{rootDir: rootDir, configFile: configFile}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (OPENVULNS_*), including those from rootDir/.env
// 2. Config file (.openvulns/config.yml or .openvulns/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	// Missing .env is fine; variables already set in the environment win.
	_ = godotenv.Load(filepath.Join(l.rootDir, ".env"))

	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, ".openvulns"))
	}

	v.SetEnvPrefix("OPENVULNS")
	v.AutomaticEnv()
	// OPENVULNS_EXTRACT_WORKERS -> extract.workers
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range []string{
		"source.repo_dir",
		"source.repo_url",
		"scanner.max_backward_lines",
		"extract.mode",
		"extract.workers",
		"extract.cache_size",
		"storage.path",
	} {
		v.BindEnv(key)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("paths.include", defaults.Paths.Include)
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	v.SetDefault("source.repo_dir", defaults.Source.RepoDir)
	v.SetDefault("source.repo_url", defaults.Source.RepoURL)

	v.SetDefault("scanner.max_backward_lines", defaults.Scanner.MaxBackwardLines)
	v.SetDefault("scanner.declaration_keywords", defaults.Scanner.DeclarationKeywords)

	v.SetDefault("extract.mode", defaults.Extract.Mode)
	v.SetDefault("extract.workers", defaults.Extract.Workers)
	v.SetDefault("extract.cache_size", defaults.Extract.CacheSize)

	v.SetDefault("storage.path", defaults.Storage.Path)
}

// LoadConfig loads configuration rooted at the current working directory.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
