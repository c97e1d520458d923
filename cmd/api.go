package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/craftcheck/internal/apicheck"
	"github.com/xkilldash9x/craftcheck/internal/contract"
	"github.com/xkilldash9x/craftcheck/internal/network"
	"github.com/xkilldash9x/craftcheck/internal/observability"
)

// newAPICmd creates the `api` command, a browserless smoke test of the
// application's HTTP endpoints.
func newAPICmd() *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Checks the home page, generation and downloads over plain HTTP",
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

			k, err := contract.Load(afero.NewOsFs(), cfg.Contract().Path)
			if err != nil {
				return err
			}

			clientCfg, err := network.NewClientConfig(cfg.HTTP(), logger)
			if err != nil {
				return fmt.Errorf("invalid http.proxy_url: %w", err)
			}
			checker, err := apicheck.NewChecker(cfg.Target().URL, logger,
				apicheck.WithContract(k),
				apicheck.WithHTTPClient(network.NewClient(clientCfg)),
			)
			if err != nil {
				return err
			}

			report := checker.Run(ctx)
			if err := report.WriteSummary(cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("failed to write summary: %w", err)
			}
			if !report.OK() {
				return fmt.Errorf("%w: %d of %d API checks failed", ErrChecksFailed, len(report.Results)-report.Passed(), len(report.Results))
			}
			return nil
		},
	}

	apiCmd.Flags().StringP("url", "u", "", "Base URL of the application under test. (Overrides config/env)")
	apiCmd.Flags().String("contract", "", "YAML file overriding page selectors and labels. (Overrides config/env)")
	return apiCmd
}
