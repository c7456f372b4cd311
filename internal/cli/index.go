package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/nosqlite/internal/store"
)

// IndexOptions holds flags for the index create command.
type IndexOptions struct {
	*RootOptions
	Name   string
	Unique bool
}

// NewIndexCommand creates the index command and its subcommands.
func NewIndexCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage expression indexes on document fields",
	}
	cmd.AddCommand(newIndexCreateCommand(rootOpts))
	cmd.AddCommand(newIndexDropCommand(rootOpts))
	cmd.AddCommand(newIndexListCommand(rootOpts))
	return cmd
}

func newIndexCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IndexOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <path>...",
		Short: "Create an index (no-op if it exists)",
		Long: `Create an index over one or more document fields. Queries that
filter or sort on the same fields can use it.

Example:
  nosqlite index create age
  nosqlite index create email --unique --name users_by_email`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runWithSession(cmd, func(ctx context.Context, s *session, f *OutputFormatter) error {
				refs, err := parseFields(args)
				if err != nil {
					return err
				}
				name, err := s.table.createIndex(ctx, store.IndexSpec{Name: opts.Name, Fields: refs, Unique: opts.Unique})
				if err != nil {
					return err
				}
				if f.Format == "json" {
					return f.Success(map[string]string{"index": name})
				}
				fmt.Fprintln(f.Writer, name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "index name (default derived from table and fields)")
	cmd.Flags().BoolVar(&opts.Unique, "unique", false, "reject documents that repeat the indexed values")

	return cmd
}

func newIndexDropCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <name>",
		Short: "Drop an index (no-op if absent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.runWithSession(cmd, func(ctx context.Context, s *session, f *OutputFormatter) error {
				if err := s.table.dropIndex(ctx, args[0]); err != nil {
					return err
				}
				if f.Format == "json" {
					return f.Success(map[string]string{"dropped": args[0]})
				}
				fmt.Fprintln(f.Writer, args[0])
				return nil
			})
		},
	}
}

func newIndexListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the indexes on the table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.runWithSession(cmd, func(ctx context.Context, s *session, f *OutputFormatter) error {
				names, err := s.table.indexes(ctx)
				if err != nil {
					return err
				}
				if f.Format == "json" {
					if names == nil {
						names = []string{}
					}
					return f.Success(names)
				}
				for _, name := range names {
					fmt.Fprintln(f.Writer, name)
				}
				return nil
			})
		},
	}
}
