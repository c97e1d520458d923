package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/craftcheck/api/schemas"
	"github.com/xkilldash9x/craftcheck/internal/artifacts"
	"github.com/xkilldash9x/craftcheck/internal/browser"
	"github.com/xkilldash9x/craftcheck/internal/config"
	"github.com/xkilldash9x/craftcheck/internal/contract"
	"github.com/xkilldash9x/craftcheck/internal/observability"
	"github.com/xkilldash9x/craftcheck/internal/reporting"
	"github.com/xkilldash9x/craftcheck/internal/scenario"
	"github.com/xkilldash9x/craftcheck/internal/wait"
)

// newRunCmd creates the `run` command, the browser driven UI verification.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Runs the UI verification scenario against the target application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := configFromContext(ctx)
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, cfg); err != nil {
				return err
			}

			outcome, err := runScenario(ctx, cfg, afero.NewOsFs(), cmd.OutOrStdout(), logger)
			if err != nil {
				return err
			}
			if !outcome.Completed() {
				return fmt.Errorf("%w: step %q: %s", ErrChecksFailed, outcome.FailedStep, outcome.Error)
			}
			return nil
		},
	}

	runCmd.Flags().StringP("url", "u", "", "Base URL of the application under test. (Overrides config/env)")
	runCmd.Flags().StringP("artifacts", "o", "", "Directory for screenshots and the run summary. (Overrides config/env)")
	runCmd.Flags().String("contract", "", "YAML file overriding page selectors and labels. (Overrides config/env)")
	runCmd.Flags().Bool("headed", false, "Show the browser window instead of running headless.")
	return runCmd
}

// applyRunFlags copies explicitly set flags over the loaded configuration.
func applyRunFlags(cmd *cobra.Command, cfg config.Interface) error {
	flags := cmd.Flags()
	if flags.Changed("url") {
		u, err := flags.GetString("url")
		if err != nil {
			return err
		}
		cfg.SetTargetURL(u)
	}
	if flags.Changed("artifacts") {
		dir, err := flags.GetString("artifacts")
		if err != nil {
			return err
		}
		cfg.SetArtifactsDir(dir)
	}
	if flags.Changed("contract") {
		path, err := flags.GetString("contract")
		if err != nil {
			return err
		}
		cfg.SetContractPath(path)
	}
	if flags.Changed("headed") {
		headed, err := flags.GetBool("headed")
		if err != nil {
			return err
		}
		cfg.SetBrowserHeadless(!headed)
	}
	return nil
}

// runScenario wires the contract, artifact store, reporters and a single
// browser session into a sequencer and runs the default steps once. An error
// means the run could not start; a failed run is reported in the outcome.
func runScenario(ctx context.Context, cfg config.Interface, fs afero.Fs, out io.Writer, logger *zap.Logger) (*schemas.Outcome, error) {
	k, err := contract.Load(fs, cfg.Contract().Path)
	if err != nil {
		return nil, err
	}

	capturer, err := artifacts.NewCapturer(fs, cfg.Artifacts().Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare artifact directory: %w", err)
	}

	formats := []string{reporting.FormatConsole}
	if cfg.Artifacts().WriteSummary {
		formats = append(formats, reporting.FormatJSON)
	}
	reporter, err := reporting.New(formats, reporting.Options{
		Logger: logger,
		Out:    out,
		Fs:     fs,
		Dir:    capturer.Dir(),
	})
	if err != nil {
		return nil, err
	}

	browserCfg := cfg.Browser()
	manager := browser.NewManager(browserCfg, logger)
	defer manager.Shutdown()

	session, err := manager.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	defer manager.Release(session)

	seq, err := scenario.NewSequencer(session, scenario.DefaultSteps(), scenario.Options{
		TargetURL: cfg.Target().URL,
		Viewport:  schemas.Viewport{Width: browserCfg.Viewport.Width, Height: browserCfg.Viewport.Height},
		Contract:  k,
		Scenario:  cfg.Scenario(),
		Poller:    wait.NewPoller(cfg.Timing(), logger),
		Capturer:  capturer,
		Reporter:  reporter,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Starting UI verification.",
		zap.String("run_id", seq.ID()),
		zap.String("target", cfg.Target().URL),
		zap.String("artifacts", capturer.Dir()),
	)
	return seq.Run(ctx), nil
}
