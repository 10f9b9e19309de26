package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrEmptyInclude indicates no include patterns were configured
	ErrEmptyInclude = errors.New("empty include patterns")

	// ErrInvalidPattern indicates a glob pattern that does not compile
	ErrInvalidPattern = errors.New("invalid glob pattern")

	// ErrInvalidRepoURL indicates a repo_url that is not an absolute URL
	ErrInvalidRepoURL = errors.New("invalid repository url")

	// ErrInvalidBackwardLimit indicates a negative backward scan limit
	ErrInvalidBackwardLimit = errors.New("invalid backward scan limit")

	// ErrInvalidKeyword indicates an empty declaration keyword
	ErrInvalidKeyword = errors.New("invalid declaration keyword")

	// ErrInvalidMode indicates an extraction mode other than labeled or all
	ErrInvalidMode = errors.New("invalid extraction mode")

	// ErrInvalidWorkers indicates a non-positive worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidCacheSize indicates a negative cache size
	ErrInvalidCacheSize = errors.New("invalid cache size")

	// ErrEmptyStoragePath indicates a missing dataset store path
	ErrEmptyStoragePath = errors.New("empty storage path")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validatePaths(&cfg.Paths); err != nil {
		errs = append(errs, err)
	}
	if err := validateSource(&cfg.Source); err != nil {
		errs = append(errs, err)
	}
	if err := validateScanner(&cfg.Scanner); err != nil {
		errs = append(errs, err)
	}
	if err := validateExtract(&cfg.Extract); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(cfg.Storage.Path) == "" {
		errs = append(errs, fmt.Errorf("%w: storage.path is required", ErrEmptyStoragePath))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validatePaths(cfg *PathsConfig) error {
	var errs []error

	if len(cfg.Include) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one include pattern required", ErrEmptyInclude))
	}
	for _, p := range append(append([]string(nil), cfg.Include...), cfg.Ignore...) {
		if _, err := glob.Compile(p, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: '%s': %v", ErrInvalidPattern, p, err))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateSource(cfg *SourceConfig) error {
	if cfg.RepoURL == "" || cfg.RepoURL == RepoURLAuto {
		return nil
	}
	u, err := url.Parse(cfg.RepoURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: '%s'", ErrInvalidRepoURL, cfg.RepoURL)
	}
	return nil
}

func validateScanner(cfg *ScannerConfig) error {
	var errs []error

	if cfg.MaxBackwardLines < 0 {
		errs = append(errs, fmt.Errorf("%w: max_backward_lines cannot be negative, got %d", ErrInvalidBackwardLimit, cfg.MaxBackwardLines))
	}
	for _, kw := range cfg.DeclarationKeywords {
		if strings.TrimSpace(kw) == "" {
			errs = append(errs, fmt.Errorf("%w: keywords cannot be blank", ErrInvalidKeyword))
			break
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateExtract(cfg *ExtractConfig) error {
	var errs []error

	mode := strings.ToLower(cfg.Mode)
	if mode != "labeled" && mode != "all" {
		errs = append(errs, fmt.Errorf("%w: must be 'labeled' or 'all', got '%s'", ErrInvalidMode, cfg.Mode))
	}
	if cfg.Workers <= 0 {
		errs = append(errs, fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidWorkers, cfg.Workers))
	}
	if cfg.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("%w: cache_size cannot be negative, got %d", ErrInvalidCacheSize, cfg.CacheSize))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
