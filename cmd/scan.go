package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/codescalpel/api/schemas"
	"github.com/xkilldash9x/codescalpel/internal/analysis/core"
	"github.com/xkilldash9x/codescalpel/internal/config"
	"github.com/xkilldash9x/codescalpel/internal/engine"
	"github.com/xkilldash9x/codescalpel/internal/observability"
	"github.com/xkilldash9x/codescalpel/internal/reporting"
	"github.com/xkilldash9x/codescalpel/internal/results"
	"github.com/xkilldash9x/codescalpel/internal/rules"
	"github.com/xkilldash9x/codescalpel/internal/store"
)

// ErrThresholdExceeded is returned by scan when a finding meets --fail-on.
var ErrThresholdExceeded = errors.New("findings at or above the fail-on threshold")

// newScanCmd creates and configures the `scan` command.
func newScanCmd() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scans a source tree and reports findings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if err := applyScanFlagOverrides(cmd, cfg); err != nil {
				return err
			}

			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			root, err = homedir.Expand(root)
			if err != nil {
				return fmt.Errorf("failed to expand scan path: %w", err)
			}
			return runScan(cmd, cfg, root)
		},
	}

	scanCmd.Flags().StringP("output", "o", "", "Output file path for the report (default stdout)")
	scanCmd.Flags().StringP("format", "f", "json", "Report format (json, sarif)")
	scanCmd.Flags().StringSlice("ignore", nil, "Additional glob patterns to skip (repeatable)")
	scanCmd.Flags().String("fail-on", "", "Exit non-zero when a finding at or above this severity remains")
	scanCmd.Flags().String("scoring", "", "Scoring mode (simple, weighted)")
	scanCmd.Flags().StringSlice("disable", nil, "Rule IDs to disable (repeatable)")
	scanCmd.Flags().Bool("persist", false, "Store the scan in PostgreSQL (requires CODESCALPEL_DATABASE_URL)")
	return scanCmd
}

// applyScanFlagOverrides copies explicitly set flags onto cfg and revalidates.
func applyScanFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("ignore") {
		extra, _ := flags.GetStringSlice("ignore")
		cfg.SetScanIgnore(append(append([]string{}, cfg.Scan().Ignore...), extra...))
	}
	if flags.Changed("fail-on") {
		v, _ := flags.GetString("fail-on")
		cfg.SetScanFailOn(v)
	}
	if flags.Changed("scoring") {
		v, _ := flags.GetString("scoring")
		cfg.SetScoringMode(v)
	}
	if flags.Changed("persist") {
		v, _ := flags.GetBool("persist")
		cfg.SetDatabaseEnabled(v)
	}
	if flags.Changed("disable") {
		ids, _ := flags.GetStringSlice("disable")
		cfg.RulesCfg.Disabled = append(cfg.RulesCfg.Disabled, ids...)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// ruleSet returns the registry minus disabled rules, warning about IDs that
// name no rule.
func ruleSet(disabled []string, logger *zap.Logger) []core.Rule {
	all := rules.Default()
	for _, id := range rules.UnknownIDs(all, disabled) {
		logger.Warn("Ignoring unknown rule ID", zap.String("rule", id))
	}
	return rules.Without(all, disabled)
}

func runScan(cmd *cobra.Command, cfg *config.Config, root string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	active := ruleSet(cfg.Rules().Disabled, logger)
	scanner := engine.New(cfg.Scan(), active, results.NewScorer(cfg.Scoring()), logger, engine.WithVersion(Version))

	result, err := scanner.Scan(ctx, root)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	catalog := reporting.Catalog{Rules: active, CWE: scanner.Pipeline().Enricher()}
	if err := writeReport(cmd, format, output, catalog, result); err != nil {
		return err
	}

	if cfg.Database().Enabled {
		if err := persist(ctx, cfg.Database().URL, result, logger); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Scanned %d files: score %d (%s), %d critical, %d warning, %d info\n",
		result.FilesScanned, result.Score, result.Grade,
		result.Summary.Critical, result.Summary.Warning, result.Summary.Info)

	if cfg.Scan().FailOn != "" {
		threshold, err := schemas.ParseSeverity(cfg.Scan().FailOn)
		if err != nil {
			return err
		}
		if result.HasFindingsAtOrAbove(threshold) {
			return fmt.Errorf("%w (%s)", ErrThresholdExceeded, threshold)
		}
	}
	return nil
}

func writeReport(cmd *cobra.Command, format, output string, catalog reporting.Catalog, result *schemas.ScanResult) error {
	var (
		reporter reporting.Reporter
		err      error
	)
	if output == "" || output == "stdout" {
		reporter, err = reporting.NewForWriter(format, cmd.OutOrStdout(), Version, catalog)
	} else {
		if output, err = homedir.Expand(output); err != nil {
			return fmt.Errorf("failed to expand output path: %w", err)
		}
		reporter, err = reporting.New(format, output, Version, catalog)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize reporter: %w", err)
	}

	if err := reporter.Write(result); err != nil {
		_ = reporter.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := reporter.Close(); err != nil {
		return fmt.Errorf("failed to finalize report: %w", err)
	}
	return nil
}

func persist(ctx context.Context, url string, result *schemas.ScanResult, logger *zap.Logger) error {
	s, pool, err := store.Open(ctx, url, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := s.Migrate(ctx); err != nil {
		return err
	}
	if err := s.SaveScan(ctx, result); err != nil {
		return fmt.Errorf("failed to persist scan: %w", err)
	}
	logger.Info("Scan persisted", zap.String("scan_id", result.ScanID))
	return nil
}
