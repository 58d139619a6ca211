package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/minicpu/asm"
	"github.com/sarchlab/minicpu/datarecording"
	"github.com/sarchlab/minicpu/isa"
	"github.com/sarchlab/minicpu/machine"
)

var (
	tracePath string
	maxSteps  int
)

var runCmd = &cobra.Command{
	Use:   "run [program.asm]",
	Short: "Run a program to completion and print the final machine state",
	Long: "`run` loads an assembly program, runs the full " +
		"fetch-decode-execute-store cycle for every instruction, and prints " +
		"the final registers and cache statistics. Without an argument it " +
		"runs the built-in addition program.",
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cmd.SilenceUsage = true

		cfg, err := loadConfig()
		if err != nil {
			log.Fatalf("Error loading configuration: %v", err)
		}

		program := loadProgramArg(args)

		m := buildMachine(cfg)
		m.LoadProgram(program)

		if tracePath != "" {
			rec := datarecording.NewRecorder(tracePath)
			defer rec.Close()

			m.AcceptHook(datarecording.NewTraceHook(rec))
		}

		steps := 0
		for m.Step() {
			steps++
			if maxSteps > 0 && steps >= maxSteps {
				break
			}
		}

		printFinalState(m, steps)
	},
}

func init() {
	runCmd.Flags().StringVar(&tracePath, "trace", "",
		"record a step trace to the named sqlite file")
	runCmd.Flags().IntVar(&maxSteps, "steps", 0,
		"stop after this many steps (0 runs to completion)")

	rootCmd.AddCommand(runCmd)
}

func loadProgramArg(args []string) []isa.Instruction {
	if len(args) == 0 {
		return machine.AdditionProgram()
	}

	f, err := os.Open(args[0])
	if err != nil {
		log.Fatalf("Error opening program: %v", err)
	}
	defer f.Close()

	program, err := asm.Parse(f)
	if err != nil {
		log.Fatalf("Error parsing program: %v", err)
	}

	return program
}

func printFinalState(m *machine.Machine, steps int) {
	state := m.State()

	fmt.Printf("Finished after %d steps (%d cycles).\n", steps, state.Cycle)

	fmt.Println("Registers:")
	for _, r := range state.Registers {
		fmt.Printf("  %-4s %d\n", r.Name, r.Value)
	}

	fmt.Println("Caches:")
	for _, level := range state.Cache {
		fmt.Printf("  %-4s %d hits, %d misses\n",
			level.Name, level.Hits, level.Misses)
	}

	fmt.Println("Touched memory:")
	for _, cell := range state.Memory {
		if cell.Used {
			fmt.Printf("  0x%04X %d\n", cell.Addr, cell.Value)
		}
	}
}
