package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/openvulns/internal/extractor"
	"github.com/mvp-joe/openvulns/internal/scanner"
)

var functionJSONFlag bool

// functionCmd represents the function command
var functionCmd = &cobra.Command{
	Use:   "function <file> <line>",
	Short: "Print the function enclosing one line of a file",
	Long: `Function runs anchored extraction for a single line and prints the block
that encloses it, with its match kind and span.

Examples:
  openvulns function contracts/Vault.sol 42
  openvulns function contracts/Vault.sol 42 --json
`,
	Args: cobra.ExactArgs(2),
	RunE: runFunction,
}

func init() {
	rootCmd.AddCommand(functionCmd)
	functionCmd.Flags().BoolVar(&functionJSONFlag, "json", false, "Print the match as JSON")
}

func runFunction(cmd *cobra.Command, args []string) error {
	line, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid line %q: %w", args[1], err)
	}

	p, err := loadProject(rootDir, cfgFile)
	if err != nil {
		return err
	}
	return executeFunction(p, args[0], line, functionJSONFlag, cmd.OutOrStdout())
}

func executeFunction(p *project, file string, line int, asJSON bool, out io.Writer) error {
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.root, path)
	}

	processor, err := extractor.NewProcessor(p.cfg.ExtractorOptions(p.root, nil))
	if err != nil {
		return fmt.Errorf("failed to create processor: %w", err)
	}
	defer processor.Close()

	src, err := extractor.ReadSource(path, p.cfg.RepoDir(p.root), p.cfg.Source.RepoURL)
	if err != nil {
		return err
	}

	m, err := processor.Scanner().ExtractAnchored(src.Lines, line)
	if errors.Is(err, scanner.ErrAnchorOutOfRange) {
		return fmt.Errorf("line %d is outside %s (%d lines)", line, file, len(src.Lines))
	}
	if err != nil {
		return err
	}
	if m.Found() {
		m.Block = m.Block.WithSource(src.ID)
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}

	if !m.Found() {
		fmt.Fprintf(out, "No function encloses %s:%d\n", src.ID, line)
		return nil
	}
	fmt.Fprintf(out, "%s:%d-%d (%s)\n", src.ID, m.Block.StartLine, m.Block.EndLine, m.Kind)
	if m.Block.Container != "" {
		fmt.Fprintf(out, "  container: %s\n", m.Block.Container)
	}
	if m.Block.Signature != "" {
		fmt.Fprintf(out, "  signature: %s\n", m.Block.Signature)
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, m.Block.Text)
	return nil
}
