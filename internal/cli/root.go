// Package cli implements the matchctl commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ashureev/collabmatch/internal/config"
	"github.com/ashureev/collabmatch/internal/logger"
	"github.com/ashureev/collabmatch/internal/store"
)

// LineReader returns the next line typed by the user.
type LineReader func(label string) (string, error)

type app struct {
	dbPath     string
	formatFlag string
	verbose    bool

	cfg      *config.Config
	log      *zap.Logger
	readLine LineReader
}

// NewRootCmd builds the matchctl command tree reading chat input from the terminal.
func NewRootCmd() *cobra.Command {
	return newRootCmd(promptLine)
}

func newRootCmd(readLine LineReader) *cobra.Command {
	a := &app{readLine: readLine}

	root := &cobra.Command{
		Use:           "matchctl",
		Short:         "Manage and chat with the collabmatch directory",
		Long:          "A CLI over the collabmatch SQLite directory: register influencers and brands, look profiles up, or chat with the matching bot.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.dbPath, "db", "d", "", "Database path (default: $DB_PATH or ./data/collabmatch.db)")
	root.PersistentFlags().StringVarP(&a.formatFlag, "format", "f", "text", "Output format: json or text")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Print debug logs")

	root.AddCommand(a.registerCmd(), a.lookupCmd(), a.chatCmd())
	return root
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	a.cfg = cfg

	switch a.formatFlag {
	case "json", "text":
	default:
		return fmt.Errorf("unknown format %q: want json or text", a.formatFlag)
	}

	a.log = zap.NewNop()
	if a.verbose {
		log, err := logger.New(false, true)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		a.log = log
	}
	return nil
}

func (a *app) openStore() (*store.SQLiteStore, error) {
	s, err := store.NewSQLite(a.cfg.DBPath, a.log.Named("store"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}
