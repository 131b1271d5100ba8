package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wilwatikta/aduana-go/internal/dbspec"
	"github.com/wilwatikta/aduana-go/internal/pagedb"
)

var rootCmd = &cobra.Command{
	Use:   "pagedb",
	Short: "Inspect and feed a crawler page database",
	Long: `pagedb operates on the page database that backs a web crawler's
storage core: an ordered key/value database of crawled pages, their
link graph, and their HITS/PageRank scores.`,
	SilenceUsage: true,
}

var (
	cfgFile      string
	dbFlag       string
	logFlag      string
	readOnlyFlag bool
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.pagedb.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "mem", "database spec: mem, pebble:DIR, or new:pebble:DIR")
	rootCmd.PersistentFlags().StringVar(&logFlag, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&readOnlyFlag, "read-only", false, "reject add and rank writebacks (edit and sync still write)")

	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("read-only", rootCmd.PersistentFlags().Lookup("read-only"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".pagedb")
	}

	viper.SetEnvPrefix("PAGEDB")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "using config file:", viper.ConfigFileUsed())
	}
}

// logger returns the process-wide logger for the level named by the
// --log-level flag or PAGEDB_LOG_LEVEL.
func logger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(viper.GetString("log-level")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openDB opens the database named by the --db flag or PAGEDB_DB. When
// --read-only (or PAGEDB_READ_ONLY) is set, the returned PageDB rejects
// Add and the ranking writebacks.
func openDB(lg *slog.Logger) (*pagedb.PageDB, error) {
	spec, err := dbspec.Parse(viper.GetString("db"))
	if err != nil {
		return nil, err
	}
	db, err := spec.Open(lg)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", spec, err)
	}
	if viper.GetBool("read-only") {
		return pagedb.NewReadOnly(lg, db), nil
	}
	return pagedb.New(lg, db), nil
}
