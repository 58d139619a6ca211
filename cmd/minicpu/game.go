package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/sarchlab/minicpu/game"
)

var gameDifficulty int

var gameCmd = &cobra.Command{
	Use:   "game [program.asm]",
	Short: "Play a program through the resource-constrained instruction game",
	Long: "`game` submits each instruction of a program to a game session " +
		"and reports the cycle and energy cost of every accepted " +
		"instruction. At difficulty 3 and above, instructions that need a " +
		"register are rejected unless the register is managed by the " +
		"session.",
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cmd.SilenceUsage = true

		cfg, err := loadConfig()
		if err != nil {
			log.Fatalf("Error loading configuration: %v", err)
		}

		if gameDifficulty != 0 {
			cfg.Game.Difficulty = gameDifficulty
		}

		m := buildMachine(cfg)
		session := game.NewSession(m, cfg.Game.Difficulty)

		for _, inst := range loadProgramArg(args) {
			result := session.Submit(inst)
			if result.OK {
				fmt.Printf("ok   %-24s %d cycles, %.1f energy\n",
					inst, result.CyclesUsed, result.EnergyUsed)
			} else {
				fmt.Printf("fail %-24s %s\n", inst, result.Reason)
			}
		}

		fmt.Printf("Total: %d cycles, %.1f energy\n",
			session.TotalCycles(), session.TotalEnergy())
	},
}

func init() {
	gameCmd.Flags().IntVar(&gameDifficulty, "difficulty", 0,
		"game difficulty (overrides the configuration)")

	rootCmd.AddCommand(gameCmd)
}
