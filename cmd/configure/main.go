package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/socialsuit/Backend-Socialsuit/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "socialsuit-configure",
		Short: "Operations tool for the Social Suit gateway",
		Long:  "CLI tool for inspecting configuration, probing backing stores, and reviewing the security audit log",
	}

	rootCmd.AddCommand(commands.NewConfigCmd())
	rootCmd.AddCommand(commands.NewPingCmd())
	rootCmd.AddCommand(commands.NewRatelimitCmd())
	rootCmd.AddCommand(commands.NewAuditCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
