package cli

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/onvoc/internal/batch"
	"github.com/roach88/onvoc/internal/config"
	"github.com/roach88/onvoc/internal/engine"
	"github.com/roach88/onvoc/internal/journal"
	"github.com/roach88/onvoc/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Terms      string
	Vocabulary string
	Journal    string

	// Config is resolved from the project file and the flags above before
	// any subcommand runs.
	Config config.Config
	Logger *slog.Logger

	// RunIDs allows overriding the journal run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs journal.RunIDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the onvoc CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onvoc",
		Short: "onvoc - controlled vocabulary maintenance",
		Long: `Maintain a controlled vocabulary stored as two synchronized trees.

The terms tree lists term names per category/subcategory; the vocabulary
tree pairs every term with a permanent identifier. Every command keeps
both trees consistent and never reuses an identifier.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "project file (default ./"+config.FileName+" if present)")
	cmd.PersistentFlags().StringVar(&opts.Terms, "terms", "", "terms tree root")
	cmd.PersistentFlags().StringVar(&opts.Vocabulary, "vocabulary", "", "vocabulary tree root")
	cmd.PersistentFlags().StringVar(&opts.Journal, "journal", "", "SQLite operation journal")

	// Add subcommands
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewMoveCommand(opts))
	cmd.AddCommand(NewBatchCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewAnnotateCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewMapCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve loads the project file, applies flag overrides and installs the
// logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	var (
		cfg config.Config
		err error
	)
	if o.ConfigPath != "" {
		cfg, err = config.Load(o.ConfigPath)
	} else {
		var wd string
		wd, err = os.Getwd()
		if err == nil {
			cfg, _, err = config.Discover(wd)
		}
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	if o.Terms != "" {
		cfg.Terms = o.Terms
	}
	if o.Vocabulary != "" {
		cfg.Vocabulary = o.Vocabulary
	}
	if o.Journal != "" {
		cfg.Journal = o.Journal
	}
	o.Config = cfg

	level, err := cfg.Level()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))
	return nil
}

// formatter returns an OutputFormatter writing to the command's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// requireVocabulary returns the vocabulary root or a command error.
func (o *RootOptions) requireVocabulary() (string, error) {
	if o.Config.Vocabulary == "" {
		return "", NewExitError(ExitCommandError,
			"vocabulary root is required (--vocabulary or "+config.FileName+")")
	}
	return o.Config.Vocabulary, nil
}

// requireRoots returns both tree roots or a command error.
func (o *RootOptions) requireRoots() (string, string, error) {
	if o.Config.Terms == "" {
		return "", "", NewExitError(ExitCommandError,
			"terms root is required (--terms or "+config.FileName+")")
	}
	vocabulary, err := o.requireVocabulary()
	if err != nil {
		return "", "", err
	}
	return o.Config.Terms, vocabulary, nil
}

// loadStore reads both trees for read-only commands.
func (o *RootOptions) loadStore() (*store.Store, error) {
	terms, vocabulary, err := o.requireRoots()
	if err != nil {
		return nil, err
	}
	s, err := store.Load(terms, vocabulary,
		store.WithScheme(o.Config.Scheme()),
		store.WithLogger(o.Logger),
	)
	if err != nil {
		return nil, wrapTreeError("failed to load trees", err)
	}
	return s, nil
}

// openEngine loads both trees for editing.
func (o *RootOptions) openEngine() (*engine.Engine, error) {
	terms, vocabulary, err := o.requireRoots()
	if err != nil {
		return nil, err
	}
	eng, err := engine.Open(terms, vocabulary,
		engine.WithScheme(o.Config.Scheme()),
		engine.WithLogger(o.Logger),
	)
	if err != nil {
		return nil, wrapTreeError("failed to load trees", err)
	}
	return eng, nil
}

// openJournal opens the configured journal. It returns nil, nil when no
// journal is configured.
func (o *RootOptions) openJournal() (*journal.Journal, error) {
	if o.Config.Journal == "" {
		return nil, nil
	}
	j, err := journal.Open(o.Config.Journal)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	return j, nil
}

func (o *RootOptions) runIDs() journal.RunIDGenerator {
	if o.RunIDs != nil {
		return o.RunIDs
	}
	return journal.UUIDv7Generator{}
}

// newRunner builds a batch runner over eng that records to j when it is
// not nil.
func (o *RootOptions) newRunner(eng *engine.Engine, j *journal.Journal, stopOnError bool) *batch.Runner {
	opts := []batch.Option{
		batch.WithLogger(o.Logger),
		batch.WithStopOnError(stopOnError),
	}
	if j != nil {
		opts = append(opts, batch.WithRecorder(j), batch.WithRunIDGenerator(o.runIDs()))
	}
	return batch.NewRunner(eng, opts...)
}

func closeJournal(j *journal.Journal, logger *slog.Logger) {
	if j == nil {
		return
	}
	if err := j.Close(); err != nil {
		logger.Error("error closing journal", "error", err)
	}
}
