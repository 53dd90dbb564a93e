package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/pep299/trends-dashboard/internal/query"
)

func (a *app) regionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List supported regions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(query.Regions()))
			for _, r := range query.Regions() {
				rows = append(rows, []string{string(r), r.Name()})
			}
			return a.printer(cmd).table([]string{"CODE", "REGION"}, rows)
		},
	}
}

func (a *app) presetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List date presets and the range each resolves to today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := a.opts.Now()
			rows := make([][]string, 0, len(query.Presets()))
			for _, p := range query.Presets() {
				r := p.Range(now)
				rows = append(rows, []string{string(p), p.Label(), r.Start.Format(query.DateLayout), r.End.Format(query.DateLayout)})
			}
			return a.printer(cmd).table([]string{"PRESET", "LABEL", "FROM", "TO"}, rows)
		},
	}
}

func (a *app) versionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Skips config loading.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			b := a.opts.Build
			jsonOutput, _ := cmd.Flags().GetBool("json")
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]string{
					"version":   b.Version,
					"commit":    b.Commit,
					"built":     b.BuildTime,
					"goVersion": runtime.Version(),
				})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "trendsctl version %s\n", b.Version)
			fmt.Fprintf(w, "  commit:     %s\n", b.Commit)
			fmt.Fprintf(w, "  built:      %s\n", b.BuildTime)
			fmt.Fprintf(w, "  go version: %s\n", runtime.Version())
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}
