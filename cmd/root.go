package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/ttlkv/cmd/kv"
	"github.com/ValentinKolb/ttlkv/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "ttlkv",
		Short: "in-memory key-value store with ttl",
		Long: fmt.Sprintf(`ttlkv (v%s)

An embedded, in-memory key-value store written in Go with per-key
time-to-live, ordered prefix queries and a background sweeper.

Configuration can be set via command line flags or environment variables
of the form TTLKV_<FLAG> (e.g. TTLKV_SWEEP_INTERVAL=250ms). Variables are
also read from .env and .env.local.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of ttlkv",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ttlkv v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(kv.DemoCmd)
	RootCmd.AddCommand(kv.ShellCmd)
	RootCmd.AddCommand(kv.PerfCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	util.SetupStoreFlags(RootCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
