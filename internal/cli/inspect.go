package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pep299/trends-dashboard/internal/export"
	"github.com/pep299/trends-dashboard/internal/trend"
)

func (a *app) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.csv|file.xlsx>",
		Short: "Summarize a previously exported table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := readExport(args[0])
			if err != nil {
				return err
			}
			if !table.HasData() {
				return fmt.Errorf("%s: %w", args[0], trend.ErrNoData)
			}
			summary, err := trend.Summarize(table)
			if err != nil {
				return err
			}

			p := a.printer(cmd)
			p.Header("%s", filepath.Base(args[0]))
			p.Info("%d puntos, %s hasta %s", table.Len(), table.Index[0].Format("02/01/2006"), table.Index[table.Len()-1].Format("02/01/2006"))
			fmt.Fprintln(cmd.OutOrStdout())
			return printSummary(p, summary)
		},
	}
}

func readExport(path string) (*trend.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return export.ReadCSV(f)
	case ".xlsx":
		return export.ReadXLSX(f)
	}
	return nil, fmt.Errorf("%w %q", export.ErrUnknownKind, filepath.Ext(path))
}
