package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/openvulns/internal/config"
	"github.com/mvp-joe/openvulns/internal/git"
)

var (
	cfgFile string
	rootDir string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "openvulns",
	Short: "OpenVulns - build function-level vulnerability datasets from Solidity sources",
	Long: `OpenVulns scans Solidity source files and cuts them into function-level
code blocks. Files annotated with @vulnerable_at_lines produce a labeled
dataset; every other function can be enumerated into an unlabeled one.
Each record carries file-level features for downstream classifiers.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <root>/.openvulns/config.yml)")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "project root directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// project is the resolved root directory and its configuration.
type project struct {
	root string
	cfg  *config.Config
}

// loadProject resolves root to an absolute path and loads its configuration.
func loadProject(root, configFile string) (*project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to access root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", abs)
	}

	loader := config.NewLoader(abs)
	if configFile != "" {
		loader = config.NewFileLoader(abs, configFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.ResolveSource(abs, git.NewOperations()); err != nil {
		return nil, err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Project root: %s\n", abs)
	}
	return &project{root: abs, cfg: cfg}, nil
}
