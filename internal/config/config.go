package config

// Config represents the complete openvulns configuration.
// It can be loaded from .openvulns/config.yml with environment variable overrides.
type Config struct {
	Paths   PathsConfig   `yaml:"paths" mapstructure:"paths"`
	Source  SourceConfig  `yaml:"source" mapstructure:"source"`
	Scanner ScannerConfig `yaml:"scanner" mapstructure:"scanner"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
}

// PathsConfig defines which files to scan and which to ignore.
type PathsConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns for source files
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`   // glob patterns to ignore
}

// SourceConfig controls how file paths become dataset source ids.
type SourceConfig struct {
	RepoDir string `yaml:"repo_dir" mapstructure:"repo_dir"` // local checkout; defaults to the project root
	RepoURL string `yaml:"repo_url" mapstructure:"repo_url"` // public URL replacing repo_dir in ids, or "auto"
}

// RepoURLAuto derives source.repo_url from the git remote and current branch.
const RepoURLAuto = "auto"

// ScannerConfig tunes the function-boundary scanner.
type ScannerConfig struct {
	MaxBackwardLines    int      `yaml:"max_backward_lines" mapstructure:"max_backward_lines"`     // 0 = bounded by file start
	DeclarationKeywords []string `yaml:"declaration_keywords" mapstructure:"declaration_keywords"` // line prefixes that open a function
}

// ExtractConfig controls the extraction pipeline.
type ExtractConfig struct {
	Mode      string `yaml:"mode" mapstructure:"mode"`             // "labeled" or "all"
	Workers   int    `yaml:"workers" mapstructure:"workers"`       // files processed in parallel
	CacheSize int    `yaml:"cache_size" mapstructure:"cache_size"` // per-file result cache entries; 0 disables
}

// StorageConfig locates the dataset store.
type StorageConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // SQLite file, relative to the project root
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Include: []string{"**/*.sol"},
			Ignore: []string{
				"node_modules/**",
				"**/node_modules/**",
				".git/**",
				"artifacts/**",
				"cache/**",
			},
		},
		Scanner: ScannerConfig{
			MaxBackwardLines:    0,
			DeclarationKeywords: []string{"function"},
		},
		Extract: ExtractConfig{
			Mode:      "labeled",
			Workers:   4,
			CacheSize: 10000,
		},
		Storage: StorageConfig{
			Path: ".openvulns/dataset.db",
		},
	}
}
