package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/pulsetrack/internal/cli"
	"github.com/cloo-solutions/pulsetrack/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pulsetrackd",
		Short: "PulseTrack daemon and CLI",
		Long:  "PulseTrack daemon for running the API server and managing team members and the vector index",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.MemberCmd())
	rootCmd.AddCommand(admin.ResyncCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
