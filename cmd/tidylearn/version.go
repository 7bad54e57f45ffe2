package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of tidylearn",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tidylearn %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
