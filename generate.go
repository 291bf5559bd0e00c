package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/Andrewnolan13/Nbody-Simulation/pkg/simulation"
)

type generateOpts struct {
	scenario string
	output   string
	json     bool
}

func newGenerateCommand() *cobra.Command {
	opts := generateOpts{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the initial conditions a scenario resolves to",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.output == "" {
				return generate(cmd.OutOrStdout(), opts)
			}
			return generateFile(opts)
		},
	}
	scenarioFlag(cmd.Flags(), &opts.scenario)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file, stdout when empty")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Write JSON instead of YAML")
	return cmd
}

// generateFile writes to opts.output. A failed Close is reported, since the
// data may not have reached the disk.
func generateFile(opts generateOpts) (err error) {
	f, err := os.Create(opts.output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", opts.output, cerr)
		}
	}()
	return generate(f, opts)
}

// generate resolves the scenario and writes it back with explicit initial
// conditions, so the same bodies can be loaded again without clusters.
func generate(w io.Writer, opts generateOpts) error {
	sc, err := simulation.LoadScenario(opts.scenario)
	if err != nil {
		return err
	}
	ic, err := sc.Conditions(sc.Rand())
	if err != nil {
		return err
	}

	resolved := *sc
	resolved.Clusters = nil
	resolved.AutoOrbit = false
	resolved.InitialConditions = &ic

	data, err := yaml.Marshal(resolved)
	if err != nil {
		return fmt.Errorf("encoding initial conditions: %w", err)
	}
	if opts.json {
		if data, err = yaml.YAMLToJSON(data); err != nil {
			return fmt.Errorf("encoding initial conditions: %w", err)
		}
	}
	_, err = w.Write(data)
	return err
}
