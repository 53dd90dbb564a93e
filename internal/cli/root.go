// Package cli implements the trendsctl command line tool.
package cli

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pep299/trends-dashboard/internal/config"
	"github.com/pep299/trends-dashboard/internal/gtrends"
	"github.com/pep299/trends-dashboard/internal/logging"
	"github.com/pep299/trends-dashboard/internal/service"
)

// BuildInfo is stamped at link time
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Options configures the command tree
type Options struct {
	Out   io.Writer
	Build BuildInfo
	// NewFetcher builds the trends source; defaults to the Google Trends client.
	NewFetcher func(cfg *config.Config) service.Fetcher
	// Now overrides the clock.
	Now func() time.Time
}

type app struct {
	opts    Options
	noColor bool
	verbose bool
	cfg     *config.Config
}

// NewRootCommand builds the command tree
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.NewFetcher == nil {
		opts.NewFetcher = defaultFetcher
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Build.Version == "" {
		opts.Build.Version = "dev"
	}
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:   "trendsctl",
		Short: "Compare product search interest from Google Trends",
		Long: `trendsctl fetches Google Trends interest for up to five products,
summarizes which one rose and fell the most, and exports the series.

Example usage:
  trendsctl analyze -k "iPhone 14, Nokia 3310"            # Last week in Chile
  trendsctl analyze -r AR -p last-3-months -k "Moto G100"
  trendsctl analyze --from 2024-01-01 --to 2024-03-31 -k "a, b" --formats csv,png -o out/
  trendsctl inspect tendencias_CL_2024-05-31.xlsx          # Summarize an export`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetOut(opts.Out)

	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(
		a.analyzeCommand(),
		a.inspectCommand(),
		a.regionsCommand(),
		a.presetsCommand(),
		a.versionCommand(),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	logging.SetupWriter(os.Stderr, level, "console")
	return nil
}

func (a *app) printer(cmd *cobra.Command) *printer {
	useColors := !a.noColor
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		useColors = false
	}
	return newPrinter(cmd.OutOrStdout(), useColors)
}

func defaultFetcher(cfg *config.Config) service.Fetcher {
	return gtrends.NewClient(gtrends.Options{
		BaseURL:           cfg.TrendsBaseURL,
		Language:          cfg.TrendsLanguage,
		TZOffset:          cfg.TrendsTZ,
		Timeout:           cfg.TrendsTimeout(),
		RequestsPerMinute: cfg.TrendsRequestsPerMinute,
	})
}
