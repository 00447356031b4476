// Package cli provides the docextract command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docfields/internal/app"
	"github.com/joseph-ayodele/docfields/internal/common"
)

// Version is set at build time.
var Version = "0.1.0"

// AppFactory builds the application for a command run.
type AppFactory func(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*app.App, error)

type env struct {
	newApp  AppFactory
	verbose bool

	app      *app.App
	closeLog func() error
}

// NewRootCmd builds the command tree. newApp may be nil.
func NewRootCmd(newApp AppFactory) *cobra.Command {
	root, _ := newRoot(newApp)
	return root
}

func newRoot(newApp AppFactory) (*cobra.Command, *env) {
	if newApp == nil {
		newApp = app.New
	}
	e := &env{newApp: newApp}

	root := &cobra.Command{
		Use:   "docextract",
		Short: "Extract structured fields from documents with an LLM",
		Long: `docextract pulls named fields out of PDF documents using a template:
an ordered list of fields with types, formats and instructions.

Templates can be written by hand or discovered from a few sample documents.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			return e.open(cmd.Context(), cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.close()
		},
	}
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newExtractCmd(e),
		newBatchCmd(e),
		newDiscoverCmd(e),
		newTemplatesCmd(e),
		newTextCmd(e),
		newDBCmd(e),
	)
	return root, e
}

// Execute runs the root command. Resources are released even when the command fails.
func Execute(ctx context.Context) error {
	root, e := newRoot(nil)
	defer e.close()
	return root.ExecuteContext(ctx)
}

func (e *env) open(ctx context.Context, stderr io.Writer) error {
	cfg := common.LoadConfig()
	if e.verbose {
		cfg.Log.Level = slog.LevelDebug
	} else if cfg.Log.Level < slog.LevelWarn {
		cfg.Log.Level = slog.LevelWarn
	}
	logger, closeLog := common.SetupLogger(cfg.Log)
	if cfg.Log.File == "" {
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Log.Level}))
	}
	e.closeLog = closeLog

	if err := cfg.Validate(); err != nil {
		return err
	}
	a, err := e.newApp(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	e.app = a
	return nil
}

func (e *env) close() error {
	var err error
	if e.app != nil {
		err = e.app.Close()
		e.app = nil
	}
	if e.closeLog != nil {
		_ = e.closeLog()
		e.closeLog = nil
	}
	return err
}
