package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CodeTheEagle/PhotonX-OS/boards"
)

var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "List the board catalog",
	Run: func(cmd *cobra.Command, args []string) {
		for _, b := range boards.All() {
			fmt.Printf("%-12s %s\n", b.Name, b.Description)
			fmt.Printf("             counter %d Hz, %d GIC lines, tick %d ms, quantum %d ticks, %d tasks x %d B stack\n",
				b.CounterHz, b.GICLines, b.TickMillis, b.QuantumTicks, b.MaxTasks, b.StackBytes)
		}
	},
}

func init() {
	rootCmd.AddCommand(boardsCmd)
}
