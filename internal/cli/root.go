package cli

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. NOSQLITE_DB.
const EnvPrefix = "NOSQLITE"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	DB       string
	Table    string
	Driver   string // "sqlite3" | "sqlite"
	KeyType  string // "int" | "text"
	Config   string
	Metrics  string // Prometheus text file written after the command
	Logger   *slog.Logger
	settings *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidKeyTypes defines the allowed primary key types.
var ValidKeyTypes = []string{"int", "text"}

// NewRootCommand creates the root command for the nosqlite CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{settings: viper.New()}

	cmd := &cobra.Command{
		Use:   "nosqlite",
		Short: "nosqlite - a document store on SQLite JSON1",
		Long: `Store, query and edit JSON documents in SQLite tables.

Every flag can also be set in a config file (--config) or through a
NOSQLITE_<FLAG> environment variable; flags win over both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.DB, "db", "nosqlite.db", "path to SQLite database")
	flags.StringVarP(&opts.Table, "table", "t", "docs", "document table")
	flags.StringVar(&opts.Driver, "driver", "sqlite3", "SQLite driver (sqlite3|sqlite)")
	flags.StringVar(&opts.KeyType, "key-type", "int", "primary key type (int|text)")
	flags.StringVar(&opts.Config, "config", "", "config file (yaml, json or toml)")
	flags.StringVar(&opts.Metrics, "metrics", "", "write statement metrics to this file (Prometheus text format)")

	// Add subcommands
	cmd.AddCommand(NewInsertCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewFindCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewPatchCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewIndexCommand(opts))

	return cmd
}

// load resolves global settings (flag > env > config file > default),
// validates them and configures logging.
func (opts *RootOptions) load(cmd *cobra.Command) error {
	v := opts.settings
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return WrapExitError(ExitCommandError, "binding flags", err)
	}

	if cfg := v.GetString("config"); cfg != "" {
		v.SetConfigFile(cfg)
		if err := v.ReadInConfig(); err != nil {
			return WrapExitError(ExitCommandError, "reading config", err)
		}
	}

	opts.Verbose = v.GetBool("verbose")
	opts.Format = v.GetString("format")
	opts.DB = v.GetString("db")
	opts.Table = v.GetString("table")
	opts.Driver = v.GetString("driver")
	opts.KeyType = v.GetString("key-type")
	opts.Metrics = v.GetString("metrics")

	// Validate format flag
	if !isValidFormat(opts.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
	}
	if !slices.Contains(ValidKeyTypes, opts.KeyType) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid key type %q: must be one of %v", opts.KeyType, ValidKeyTypes))
	}

	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	opts.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))
	return nil
}

// formatter builds the output formatter for cmd.
func (opts *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return GetExitCode(err)
	}
	return ExitSuccess
}
