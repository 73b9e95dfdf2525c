package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/landrop/landrop/internal/ui"
	"github.com/landrop/landrop/internal/version"
)

var (
	flagConfig   string
	flagLogLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "landrop",
	Short:   "Receive files from LocalSend peers on your local network",
	Long:    `landrop is a command-line receiver for the LocalSend protocol. Peers on the same link discover each other over UDP multicast and transfer files over mutually-trusted HTTPS. landrop announces itself, prompts you when a sender offers files, and streams the accepted ones to disk with live progress.`,
	Version: version.Version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
