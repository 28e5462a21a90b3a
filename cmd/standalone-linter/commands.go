package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/osfbuildersuite/standalone-linter/analyzers"
	"github.com/osfbuildersuite/standalone-linter/analyzers/catalog"
	"github.com/osfbuildersuite/standalone-linter/builder"
	"github.com/osfbuildersuite/standalone-linter/config"
	"github.com/osfbuildersuite/standalone-linter/plugins/javascript"
)

type lintFlags struct {
	configPath      string
	envFile         string
	workspace       string
	reportPath      string
	sourcePattern   string
	excludePatterns []string
	excludeRules    []string
}

func newRootCmd() *cobra.Command {
	flags := &lintFlags{}

	rootCmd := &cobra.Command{
		Use:   "standalone-linter",
		Short: builder.DisplayName,
		Long: `Lints the JavaScript files matching the configured source patterns,
prints every finding to the build log and fails when any is found.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, flags)
		},
	}

	rootCmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "step configuration file (.toml, .yaml)")
	rootCmd.Flags().StringVar(&flags.envFile, "env-file", "", "dotenv file loaded before the configuration")
	rootCmd.Flags().StringVarP(&flags.workspace, "workspace", "w", "", "workspace directory")
	rootCmd.Flags().StringVar(&flags.reportPath, "report-path", "", "report directory, relative to the workspace")
	rootCmd.Flags().StringVar(&flags.sourcePattern, "source-pattern", "", "single source pattern")
	rootCmd.Flags().StringArrayVar(&flags.excludePatterns, "exclude-pattern", nil, "pattern excluded from --source-pattern (repeatable)")
	rootCmd.Flags().StringArrayVar(&flags.excludeRules, "exclude-rule", nil, "rule key not evaluated (repeatable)")

	rootCmd.AddCommand(newRulesCmd())

	return rootCmd
}

func runLint(cmd *cobra.Command, flags *lintFlags) error {
	if flags.envFile != "" {
		if err := config.LoadEnvFile(flags.envFile); err != nil {
			return err
		}
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}

	// flags win over the file and the environment
	if flags.workspace != "" {
		cfg.Workspace = flags.workspace
	}
	if flags.reportPath != "" {
		cfg.ReportPath = flags.reportPath
	}
	if flags.sourcePattern != "" {
		cfg.SourcePattern = flags.sourcePattern
	}
	if len(flags.excludePatterns) > 0 {
		cfg.ExcludePatterns = flags.excludePatterns
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	setupLogger(cfg.Logging.Level, cfg.Logging.Format)

	log.Debug().
		Str("workspace", cfg.Workspace).
		Str("report_path", cfg.ReportPath).
		Bool("legacy", cfg.IsLegacy()).
		Int("source_patterns", len(cfg.SourcePatterns)).
		Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	step := builder.FromConfig(cfg, builder.Options{
		Logger:        log.Logger,
		ExcludedRules: flags.excludeRules,
	})
	return step.Perform(ctx, cfg.Workspace, cmd.OutOrStdout())
}

func newRulesCmd() *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "List the JavaScript rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := loadRules()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range rules {
				fmt.Fprintf(out, "%-18s %-9s %-16s %s\n", r.Key, r.Severity, r.Type, r.Name)
			}
			return nil
		},
	}

	describeCmd := &cobra.Command{
		Use:   "describe [rule key]",
		Short: "Print the description of a rule as HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := loadRules()
			if err != nil {
				return err
			}

			r, ok := rules.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown rule %q", args[0])
			}

			html, err := r.HTMLDescription()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), html)
			return nil
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export [directory]",
		Short: "Write one TOML file per rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := loadRules()
			if err != nil {
				return err
			}

			if err := rules.BuildTOML(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rules written to %s\n", len(rules), args[0])
			return nil
		},
	}

	rulesCmd.AddCommand(describeCmd, exportCmd)

	return rulesCmd
}

func loadRules() (catalog.RuleMetas, error) {
	p, err := analyzers.LookupPlugin(javascript.PluginKey)
	if err != nil {
		return nil, err
	}

	if err := p.Load(); err != nil {
		return nil, err
	}

	return p.Rules(), nil
}
