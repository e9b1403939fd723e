package main

import (
	"fmt"

	"github.com/aretw0/relview"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of relview",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("relview version %s\n", relview.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
