// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the billgraph CLI.
// Each pipeline stage is a subcommand: acquire, convert, extract,
// knowledge, ontology, and annotator.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/billgraph/internal/logging"
	"github.com/pdiddy/billgraph/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger is built from the logging config before any subcommand runs.
var logger = zap.NewNop()

// rootCmd is the base command for the billgraph CLI.
var rootCmd = &cobra.Command{
	Use:   "billgraph",
	Short: "Extract entities and relations from legislative bills",
	Long: `billgraph turns Hawaii legislative bill text into typed entities and
relationship triples, then indexes them in SQLite and exports them as
OWL or GraphML ontologies.

Stages run as subcommands in order: acquire downloads bill HTML, convert
produces plain text, extract writes <bill>-extraction.json documents,
knowledge indexes and queries them, and ontology serializes them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log, err := logging.New(loggingConfig())
		if err != nil {
			return err
		}
		logger = log

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./billgraph.yaml or ~/.config/billgraph/billgraph.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: console or json")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file with rotation instead of stderr")

	bindFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	bindFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	bindFlag("logging.file", rootCmd.PersistentFlags().Lookup("log-file"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("billgraph")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "billgraph"))
		}
	}

	viper.SetEnvPrefix("BILLGRAPH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
