package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/devservice"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/logging"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/telemetry"
)

func main() {
	var (
		addr     string
		dataset  string
		logLevel string
	)

	rootCmd := &cobra.Command{
		Use:   "devserver",
		Short: "Serve a reference dataset over the data service HTTP contract",
		Long: `Serve GET /api/meta/states, /api/meta/districts, /api/meta/blocks and
POST /api/query from a YAML dataset. Without --dataset the bundled sample
is used. Prometheus metrics are exposed on /metrics.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.NewLogger(logLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ds := devservice.SampleDataset()
			if dataset != "" {
				if ds, err = devservice.LoadDataset(dataset); err != nil {
					return err
				}
			}
			return serve(cmd.Context(), addr, ds, logger)
		},
	}
	rootCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	rootCmd.Flags().StringVar(&dataset, "dataset", "", "path to a YAML dataset (default: bundled sample)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, addr string, ds *devservice.Dataset, logger *zap.Logger) error {
	router := devservice.NewRouter(ds, logger)
	router.GET("/metrics", gin.WrapH(telemetry.Handler()))

	srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("devserver listening", zap.String("addr", addr), zap.Int("states", len(ds.StateList)))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
