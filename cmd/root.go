// Package cmd wires the wildscan command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/endorses/wildscan/cmd/contacts"
	"github.com/endorses/wildscan/cmd/match"
	"github.com/endorses/wildscan/cmd/pcap"
	"github.com/endorses/wildscan/cmd/scan"
	"github.com/endorses/wildscan/internal/pkg/cmdutil"
	"github.com/endorses/wildscan/internal/pkg/logger"
	"github.com/endorses/wildscan/internal/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCmd builds the wildscan command tree.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:     "wildscan",
		Short:   "wildscan finds wildcard patterns in streams",
		Long:    fmt.Sprintf("wildscan %s - Online wildcard pattern matching over byte streams and captures", version.GetVersion()),
		Version: version.GetFullVersion(),

		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initConfig(cfgFile)

			level := cmdutil.GetString(cmd.Flags(), "log-level", "log_level")
			if err := logger.SetLevel(level); err != nil {
				return cmdutil.UsageError(err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/wildscan/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return cmdutil.UsageError(err)
	})

	rootCmd.AddCommand(match.NewCommand())
	rootCmd.AddCommand(scan.NewCommand())
	rootCmd.AddCommand(pcap.NewCommand())
	rootCmd.AddCommand(contacts.NewCommand())

	return rootCmd
}

// Execute runs the command line and exits with the command's exit code.
func Execute() {
	logger.Initialize()

	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(cmdutil.OutputError(os.Stderr, err))
	}
}

func initConfig(cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Priority order for config files:
		// 1. ~/.config/wildscan/config.yaml
		// 2. ~/.wildscan.yaml
		viper.AddConfigPath(home + "/.config/wildscan")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
		if err := viper.ReadInConfig(); err != nil {
			viper.AddConfigPath(home)
			viper.SetConfigName(".wildscan")
		}
	}

	viper.SetEnvPrefix("WILDSCAN")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Debug("Using config file", "path", viper.ConfigFileUsed())
	}
}
