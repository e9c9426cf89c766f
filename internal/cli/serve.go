package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/coloriage/internal/api"
)

const (
	defaultAddr     = ":8080"
	shutdownTimeout = 10 * time.Second
)

// serveCommand creates the serve command, which exposes the pipeline over
// HTTP until the context is cancelled.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		configPath string
		maxBytes   int64
		timeout    time.Duration
		cf         cacheFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the grid API over HTTP",
		Long: `Start an HTTP server that answers POST /v1/grids with the JSON result for
the uploaded image. Options come from query parameters or a JSON
X-Coloriage-Options header.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") && cfg.Serve.Addr != "" {
				addr = cfg.Serve.Addr
			}
			if !cmd.Flags().Changed("max-bytes") && cfg.Serve.MaxBytes > 0 {
				maxBytes = cfg.Serve.MaxBytes
			}
			if !cmd.Flags().Changed("timeout") {
				if d, err := cfg.Serve.timeout(); err != nil {
					return err
				} else if d > 0 {
					timeout = d
				}
			}

			runner, err := c.newRunner(ctx, cf.withConfig(cmd, cfg))
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := &http.Server{
				Addr:              addr,
				Handler:           api.New(runner, logger, api.Config{MaxBytes: maxBytes, Timeout: timeout}).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext:       func(net.Listener) context.Context { return ctx },
			}
			return serve(ctx, srv, func() {
				logger.Info("listening", "addr", addr)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default ./"+configFileName+" when present)")
	cmd.Flags().Int64Var(&maxBytes, "max-bytes", 0, "largest accepted upload in bytes (0 for default)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-request pipeline timeout (0 for default)")
	cf.register(cmd)
	return cmd
}

// serve runs srv until ctx is done and then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, started func()) error {
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	started()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
