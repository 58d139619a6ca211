package main

import (
	"log"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/minicpu/monitoring"
)

var (
	servePort int
	openPage  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve [program.asm]",
	Short: "Serve the machine over HTTP for step-by-step inspection",
	Long: "`serve` loads an assembly program and starts the monitoring " +
		"server, so that a visualization can step the machine and inspect " +
		"registers, memory, caches, and the bus. Without an argument it " +
		"loads the built-in addition program.",
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cmd.SilenceUsage = true

		cfg, err := loadConfig()
		if err != nil {
			log.Fatalf("Error loading configuration: %v", err)
		}

		if servePort != 0 {
			cfg.Monitor.Port = servePort
		}

		m := buildMachine(cfg)
		m.LoadProgram(loadProgramArg(args))

		monitor := monitoring.NewMonitor().WithPortNumber(cfg.Monitor.Port)
		monitor.RegisterMachine(m)

		addr, err := monitor.StartServer()
		if err != nil {
			log.Fatalf("Error starting monitor: %v", err)
		}

		if openPage {
			if openErr := browser.OpenURL(addr + "/api/state"); openErr != nil {
				log.Printf("Cannot open browser: %v", openErr)
			}
		}

		select {}
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0,
		"port for the monitoring server (0 picks a random port)")
	serveCmd.Flags().BoolVar(&openPage, "open", false,
		"open the machine state in a browser")

	rootCmd.AddCommand(serveCmd)
}
