package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/difficulty-export/internal/config"
	"github.com/SAP-F-2025/difficulty-export/internal/services"
	"github.com/SAP-F-2025/difficulty-export/internal/utils"
)

// rootOptions holds the global flags. Empty values leave the environment
// configuration untouched.
type rootOptions struct {
	redisURL   string
	exportDir  string
	policyFile string
	report     string
	emitStdout bool
	readOnly   bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "difficulty-export",
		Short: "Export survey difficulty ratings into per-dataset JSONL files",
		Long: `difficulty-export scans every respondent's answers in Redis, joins them with
question and dataset metadata, infers each dataset's difficulty scale
(0-10, 0-5 or time) and merges the records into <export-dir>/<dataset>.jsonl.

Existing export entries are kept; hand-corrected difficulty and timing fields
win over freshly scraped values. Running it twice produces identical files.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.redisURL, "redis-url", "", "Redis connection URL (default from REDIS_URL)")
	flags.StringVar(&opts.exportDir, "export-dir", "", "directory holding the per-dataset JSONL exports (default from EXPORT_DIR)")
	flags.StringVar(&opts.policyFile, "policy", "", "YAML file extending the merge policy (default from MERGE_POLICY_FILE)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging in text format")

	rootCmd.Flags().BoolVar(&opts.emitStdout, "emit-stdout", false, "also print every record as a JSON line after updating exports")
	rootCmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "inspect scales without writing any export file")
	rootCmd.Flags().StringVar(&opts.report, "report", "", "write a scale report workbook (.xlsx) to this path")

	rootCmd.AddCommand(newServeCmd(opts))
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.redisURL != "" {
		cfg.RedisURL = opts.redisURL
	}
	if opts.exportDir != "" {
		cfg.ExportDir = opts.exportDir
	}
	if opts.policyFile != "" {
		cfg.PolicyFile = opts.policyFile
	}
	return cfg, nil
}

func runExport(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger := utils.NewLogger(cmd.ErrOrStderr(), opts.verbose)
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.service.Run(ctx, services.ExportOptions{
		ReadOnly:   opts.readOnly,
		ReportPath: opts.report,
	})
	if err != nil {
		return err
	}

	return services.WriteSummary(cmd.OutOrStdout(), result, opts.emitStdout)
}
