package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/openvulns/internal/dataset"
	"github.com/mvp-joe/openvulns/internal/storage"
)

var (
	exportDatasetFlag string
	exportFormatFlag  string
	exportOutputFlag  string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a stored dataset to CSV or JSONL",
	Long: `Export reads a dataset from the store and writes it in dataset order.
With --output - (the default) the dataset goes to stdout.

Examples:
  openvulns export --dataset labeled --format csv --output labeled.csv
  openvulns export --dataset all --format jsonl > functions.jsonl
`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportDatasetFlag, "dataset", string(dataset.KindLabeled), "Dataset to export: labeled or all")
	exportCmd.Flags().StringVar(&exportFormatFlag, "format", string(dataset.FormatCSV), "Output format: csv or jsonl")
	exportCmd.Flags().StringVarP(&exportOutputFlag, "output", "o", "-", "Output file, or - for stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	kind, err := dataset.ParseKind(exportDatasetFlag)
	if err != nil {
		return err
	}
	format, err := dataset.ParseFormat(exportFormatFlag)
	if err != nil {
		return err
	}

	p, err := loadProject(rootDir, cfgFile)
	if err != nil {
		return err
	}
	return executeExport(p, kind, format, exportOutputFlag, cmd.OutOrStdout())
}

func executeExport(p *project, kind dataset.Kind, format dataset.Format, output string, stdout io.Writer) error {
	db, err := storage.Open(p.cfg.StoragePath(p.root))
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := storage.NewRecordReader(db).ReadRecords(kind)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%s dataset: %w (run 'openvulns extract --mode %s' first)", kind, dataset.ErrEmptyDataset, kind)
	}

	if output == "" || output == "-" {
		return dataset.Write(stdout, format, records)
	}
	if err := writeDatasetFile(output, format, records); err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(stdout, "Wrote %s records to %s\n", formatNumber(len(records)), output)
	}
	return nil
}
