package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Andrewnolan13/Nbody-Simulation/pkg/metrics"
)

type runOpts struct {
	scenario    string
	steps       int
	metricsAddr string
}

func newRunCommand() *cobra.Command {
	opts := runOpts{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario without a window",
		Long: `Run a scenario headless for a number of steps, or until interrupted.
With --metrics-addr the step counters are served in the Prometheus format.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeadless(cmd.Context(), opts)
		},
	}
	scenarioFlag(cmd.Flags(), &opts.scenario)
	cmd.Flags().IntVar(&opts.steps, "steps", 1000, "Number of steps to run, 0 runs until interrupted")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve /metrics on this address, e.g. :9090")
	return cmd
}

func runHeadless(ctx context.Context, opts runOpts) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	_, sim, err := loadSimulator(opts.scenario)
	if err != nil {
		return err
	}

	rec := metrics.NewRecorder(nil, nil)
	sim.AddObserver(rec)

	if opts.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", rec.Handler())
		srv := &http.Server{Addr: opts.metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.WithError(err).Error("metrics server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logrus.WithField("addr", opts.metricsAddr).Info("serving metrics")
	}

	err = sim.Run(ctx, opts.steps)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
