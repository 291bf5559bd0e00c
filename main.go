package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Andrewnolan13/Nbody-Simulation/pkg/simulation"
)

func newRootCommand() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "nbody",
		Short:         "Gravitational n-body simulation with merging bodies",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newViewCommand(),
		newRunCommand(),
		newGenerateCommand(),
	)
	return cmd
}

// scenarioFlag is the -f flag shared by every subcommand.
func scenarioFlag(fs *pflag.FlagSet, path *string) {
	fs.StringVarP(path, "file", "f", "environments/solar.yaml", "Scenario file (YAML or JSON)")
}

func loadSimulator(path string) (*simulation.Scenario, *simulation.Simulator, error) {
	sc, err := simulation.LoadScenario(path)
	if err != nil {
		return nil, nil, err
	}
	sim, err := simulation.NewSimulator(sc)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	logrus.WithFields(logrus.Fields{
		"scenario": sc.Name,
		"bodies":   sim.Store.Len(),
		"policy":   sc.Policy,
	}).Info("scenario loaded")
	return sc, sim, nil
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		logrus.WithError(err).Fatal("nbody failed")
	}
}
