package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	providerFlag string
	modelFlag    string
	debugFlag    bool
)

var rootCmd = &cobra.Command{
	Use:   "codedrill",
	Short: "CodeDrill - AI-graded Python exercise trainer",
	Long: `CodeDrill generates Python programming exercises with an LLM, runs
learner submissions in a sandbox, and has the LLM judge the output
against the reference solution.

It serves a web API for classroom use and a local REPL for solo practice.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "LLM provider (overrides config)")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "Model to use (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
