// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/codescalpel/internal/config"
	"github.com/xkilldash9x/codescalpel/internal/observability"
)

type contextKey string

const configKey contextKey = "config"

// NewRootCommand builds a fresh command tree. Every invocation gets its own
// instance so flag state never leaks between runs.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "codescalpel",
		Short:         "Static analysis for JavaScript and TypeScript projects.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(cmd, v); err != nil {
				observability.InitializeLogger(config.NewDefaultConfig().Logger())
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.NewDefaultConfig().Logger())
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Starting codescalpel", zap.String("version", Version))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is ./codescalpel.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newRulesCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the command tree with ctx and reports the error, if any, on
// stderr.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	defer observability.Sync()
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrThresholdExceeded):
		fmt.Fprintln(os.Stderr, err)
	case errors.Is(err, context.Canceled):
		observability.GetLogger().Warn("Command cancelled")
	default:
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// initializeConfig points v at the config file and environment.
func initializeConfig(cmd *cobra.Command, v *viper.Viper) error {
	flags := cmd.Root().PersistentFlags()

	cfgFile, _ := flags.GetString("config")
	if cfgFile != "" {
		path, err := homedir.Expand(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to expand config path %q: %w", cfgFile, err)
		}
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "codescalpel"))
		}
		v.SetConfigName("codescalpel")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("CODESCALPEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if f := flags.Lookup("log-level"); f != nil && f.Changed {
		if err := v.BindPFlag("logger.level", f); err != nil {
			return err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// configFromContext returns the configuration loaded by the root command.
func configFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}
