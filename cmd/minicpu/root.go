// The minicpu command runs, serves, and inspects programs for the teaching
// CPU.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/sarchlab/minicpu/config"
	"github.com/sarchlab/minicpu/machine"

	_ "github.com/tliron/commonlog/simple"
)

var (
	configPath string
	verbosity  int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "minicpu",
	Short: "minicpu runs programs on a deterministic teaching CPU.",
	Long: `minicpu runs programs on a deterministic teaching CPU. It can run ` +
		`a program to completion, serve the machine over HTTP for step-by-step ` +
		`inspection, show instruction encodings, and play the ` +
		`resource-constrained instruction game.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		commonlog.Configure(verbosity, nil)
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to a TOML configuration file")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase log verbosity")
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}

	return config.FromEnvironment(cfg), nil
}

func buildMachine(cfg config.Config) *machine.Machine {
	b := machine.MakeBuilder().
		WithMemorySize(cfg.Machine.MemorySize).
		WithCacheGeometry(cfg.Geometry()).
		WithStepDuration(cfg.StepDuration())

	if cfg.Machine.StrictDecode {
		b = b.WithStrictDecode()
	}

	return b.Build()
}
