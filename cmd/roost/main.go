package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags.
var version = "0.5.0"

var rootCmd = &cobra.Command{
	Use:   "roost",
	Short: "Multi-account session vault for the embedded web client",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the roost version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("roost %s\n", version)
	},
}

func init() {
	rootCmd.Version = version
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
