package main

import (
	"os"

	"github.com/spf13/cobra"
)

const version = "v0.1.0-alpha"

var rootCmd = &cobra.Command{
	Use:     "hocs",
	Short:   "PhotonX HOCS kernel core on a simulated board",
	Long:    "Boots the HOCS scheduling core (GICv2 + generic timer + scheduler) on a simulated ARM board and drives it tick by tick.",
	Version: version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
