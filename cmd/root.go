package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-pomodoro/internal/config"
	"github.com/Tiliavir/trivial-pomodoro/internal/journal"
	"github.com/Tiliavir/trivial-pomodoro/internal/storage"
)

var dataDirFlag string

var rootCmd = &cobra.Command{
	Use:   "tpom",
	Short: "Trivial Pomodoro – a terminal work/rest interval timer",
	Long: `tpom runs work and rest intervals in your terminal and records what you
finished in each work interval. Records are kept in a local journal under
~/.tpom/ and, when an endpoint is configured, uploaded as signed requests.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Data directory (default ~/.tpom)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(signCmd)
}

// fail prints err and exits with the storage/internal error status.
func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(2)
}

func dataDir() string {
	if dataDirFlag != "" {
		return dataDirFlag
	}
	base, err := config.BaseDir()
	if err != nil {
		fail(err)
	}
	return base
}

// loadConfig reads the configuration. A broken file is reported and the
// defaults are used, like the rest of the CLI does for recoverable problems.
func loadConfig(base string) config.Config {
	cfg, err := config.Load(base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\nUsing default settings.\n", err)
	}
	return cfg
}

// openJournal opens the configured backend and the journal on top of it.
// The caller closes the returned store.
func openJournal(base string, cfg config.Config) (*journal.Journal, storage.Store) {
	store, err := storage.Open(cfg.Storage.Backend, base)
	if err != nil {
		fail(err)
	}
	j, err := journal.Open(store)
	if err != nil {
		store.Close()
		fail(err)
	}
	return j, store
}
