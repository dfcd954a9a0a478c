package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Terminal client for the AI-audit chat assistant",
	Long: `parley talks to the AI-audit backend: send messages, upload
documents for analysis, and receive realtime updates pushed for your
account from other devices or backend agents.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/parley/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("backend-url", "http://localhost:8000", "audit backend base URL")
	rootCmd.PersistentFlags().String("feed-url", "", "database change feed base URL (empty disables)")
	rootCmd.PersistentFlags().String("ws-url", "", "raw socket gateway URL, ws:// or wss:// (empty disables)")
	rootCmd.PersistentFlags().String("owner", "", "authenticated client id")
	rootCmd.PersistentFlags().String("model", "", "backend model selection")
	rootCmd.PersistentFlags().String("agent", "auditor", "agent type sent on chat requests")
	rootCmd.PersistentFlags().String("transcript", "", "path to save the conversation transcript on exit")

	for _, name := range []string{"debug", "backend-url", "feed-url", "ws-url", "owner", "model", "agent", "transcript"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in the config file and PARLEY_* environment
// variables if set.
func initConfig() {
	viper.SetEnvPrefix("PARLEY")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(configDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// configDir returns the per-user configuration directory.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "parley")
}
