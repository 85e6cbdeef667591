package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	config  *Config

	envKeyReplacer = strings.NewReplacer(".", "_")
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:     "wetdirt",
	Short:   "wetdirt - federated identity directory",
	Long:    `wetdirt answers WebFinger lookups for local accounts and manages those accounts in a SurrealDB-style database.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if config == nil {
			return fmt.Errorf("configuration was not loaded")
		}
		return config.Validate()
	},
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./wetdirt.yaml or /etc/wetdirt/wetdirt.yaml)")

	// Database flags
	rootCmd.PersistentFlags().String("db-url", "http://localhost:8000/sql", "database query endpoint")
	rootCmd.PersistentFlags().String("db-namespace", "wetdirt", "database namespace")
	rootCmd.PersistentFlags().String("db-database", "wetdirt", "database name")
	rootCmd.PersistentFlags().String("db-credentials", "root:root", "database user:password")

	// Directory flags
	rootCmd.PersistentFlags().String("domain", "localhost", "public domain rendered into WebFinger documents")

	// Hashing flags
	rootCmd.PersistentFlags().Int("hash-workers", 0, "concurrent password derivations (0=number of CPUs)")

	// Logging flags
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	_ = viper.BindPFlag("db.url", rootCmd.PersistentFlags().Lookup("db-url"))
	_ = viper.BindPFlag("db.namespace", rootCmd.PersistentFlags().Lookup("db-namespace"))
	_ = viper.BindPFlag("db.database", rootCmd.PersistentFlags().Lookup("db-database"))
	_ = viper.BindPFlag("db.credentials", rootCmd.PersistentFlags().Lookup("db-credentials"))
	_ = viper.BindPFlag("server.domain", rootCmd.PersistentFlags().Lookup("domain"))
	_ = viper.BindPFlag("hash.workers", rootCmd.PersistentFlags().Lookup("hash-workers"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(serveCmd, userCmd, lookupCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	var err error
	config, err = LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
}
