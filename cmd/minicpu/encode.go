package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/minicpu/isa"
)

var encodeCmd = &cobra.Command{
	Use:   "encode [program.asm]",
	Short: "Print the hex encoding of each instruction in a program",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cmd.SilenceUsage = true

		for _, inst := range loadProgramArg(args) {
			fmt.Printf("%-8s %s\n", isa.Encode(inst), inst)
		}
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
}
