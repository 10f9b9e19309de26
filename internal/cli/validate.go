package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/openvulns/internal/dataset"
	"github.com/mvp-joe/openvulns/internal/storage"
)

var (
	validateDatasetFlag string
	validateCSVFlag     string
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a dataset against the fixed column schema",
	Long: `Validate checks that a dataset has exactly the expected columns and at
least one row. It reads the stored dataset by default, or a CSV file.

Examples:
  openvulns validate --dataset labeled
  openvulns validate --csv functions.csv
`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validateDatasetFlag, "dataset", string(dataset.KindLabeled), "Stored dataset to validate: labeled or all")
	validateCmd.Flags().StringVar(&validateCSVFlag, "csv", "", "Validate this CSV file instead of the store")
}

func runValidate(cmd *cobra.Command, args []string) error {
	if validateCSVFlag != "" {
		return executeValidateCSV(validateCSVFlag, cmd.OutOrStdout())
	}

	p, err := loadProject(rootDir, cfgFile)
	if err != nil {
		return err
	}
	kind, err := dataset.ParseKind(validateDatasetFlag)
	if err != nil {
		return err
	}
	return executeValidateStore(p, kind, cmd.OutOrStdout())
}

func executeValidateCSV(path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	header, rows, err := dataset.ReadCSV(f)
	if err != nil {
		return err
	}
	if err := dataset.Validate(header, rows); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(out, "✓ %s: %s rows, %d columns\n", path, formatNumber(len(rows)), len(header))
	return nil
}

func executeValidateStore(p *project, kind dataset.Kind, out io.Writer) error {
	db, err := storage.Open(p.cfg.StoragePath(p.root))
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := storage.NewRecordReader(db).ReadRecords(kind)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Row())
	}
	if err := dataset.Validate(dataset.Columns, rows); err != nil {
		return fmt.Errorf("%s dataset: %w", kind, err)
	}
	fmt.Fprintf(out, "✓ %s dataset: %s rows, %d columns\n", kind, formatNumber(len(rows)), len(dataset.Columns))
	return nil
}
