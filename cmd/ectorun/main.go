package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	rootCmd = &cobra.Command{
		Use:   "ectorun",
		Short: "Run dataflow graphs through the scheduler",
		Long: `ectorun builds small demonstration dataflow graphs and runs them through
the scheduler, for exploring firing, strand serialization, and respawn
behavior from the command line.`,
		Version: version,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available demo graphs",
	Run: func(*cobra.Command, []string) {
		fmt.Println("Available demo graphs:")
		fmt.Println()
		for _, d := range demos {
			fmt.Printf("  %-10s %s\n", d.name, d.description)
		}
	},
}
