package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/openvulns/internal/dataset"
	"github.com/mvp-joe/openvulns/internal/storage"
)

// Set with -ldflags "-X github.com/mvp-joe/openvulns/internal/cli.Version=..."
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the openvulns build and dataset format versions",
	Long: `Show the openvulns release, the commit and date it was built from, and the
versions of the outputs it writes: the dataset store schema and the column
layout of exported datasets. Extractions made by builds with a different
store schema should be re-run.`,
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd.OutOrStdout(), versionShort)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the release version")
	rootCmd.AddCommand(versionCmd)
}

func printVersion(out io.Writer, short bool) {
	if short {
		fmt.Fprintln(out, Version)
		return
	}
	fmt.Fprintf(out, "openvulns %s (%s/%s, %s)\n", Version, runtime.GOOS, runtime.GOARCH, runtime.Version())
	fmt.Fprintf(out, "  commit:       %s\n", GitCommit)
	fmt.Fprintf(out, "  built:        %s\n", BuildDate)
	fmt.Fprintf(out, "  store schema: %s\n", storage.SchemaVersion)
	fmt.Fprintf(out, "  columns:      %s\n", strings.Join(dataset.Columns, ","))
}
