package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/craftcheck/internal/observability"
	"github.com/xkilldash9x/craftcheck/internal/testapp"
)

const fixtureShutdownTimeout = 5 * time.Second

// newFixtureCmd serves the in-process OpenCraftShop stand-in, for trying the
// harness without the real application.
func newFixtureCmd() *cobra.Command {
	var (
		addr string
		opts testapp.Options
	)

	fixtureCmd := &cobra.Command{
		Use:    "fixture",
		Short:  "Serves a local stand-in of the OpenCraftShop UI and API",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", addr, err)
			}
			cmd.Printf("Serving fixture on http://%s\n", ln.Addr())
			return serveFixture(cmd.Context(), ln, testapp.New(opts, logger).Handler(), logger)
		},
	}

	fixtureCmd.Flags().StringVar(&addr, "addr", "127.0.0.1:5000", "Listen address.")
	fixtureCmd.Flags().DurationVar(&opts.GenerateDelay, "generate-delay", 500*time.Millisecond, "Simulated generation time.")
	fixtureCmd.Flags().BoolVar(&opts.HideViewer, "hide-viewer", false, "Never show the 3D viewer controls.")
	fixtureCmd.Flags().BoolVar(&opts.OmitCutDiagram, "omit-cut-diagram", false, "Leave the cut diagram out of the page.")
	fixtureCmd.Flags().BoolVar(&opts.OmitDownloads, "omit-downloads", false, "Leave the download links out of the page.")
	fixtureCmd.Flags().BoolVar(&opts.FailGenerate, "fail-generate", false, "Answer every generation request with a 500.")
	return fixtureCmd
}

// serveFixture serves h on ln until ctx is cancelled.
func serveFixture(ctx context.Context, ln net.Listener, h http.Handler, logger *zap.Logger) error {
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down fixture server.")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fixtureShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
