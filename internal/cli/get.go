package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/nosqlite/internal/field"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	Path string
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print a document or one of its fields",
		Long: `Print the document stored under key, or the value at --path.

Paths use dot and bracket syntax (address.city, tags[0], tags[#-1]);
prefix a native column with @ (@id).

Example:
  nosqlite get 1
  nosqlite get 1 --path address.city`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runWithSession(cmd, func(ctx context.Context, s *session, f *OutputFormatter) error {
				return runGet(ctx, opts, s, f, args[0])
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Path, "path", "p", "", "field to print instead of the whole document")

	return cmd
}

func runGet(ctx context.Context, opts *GetOptions, s *session, f *OutputFormatter, key string) error {
	if opts.Path == "" {
		doc, ok, err := s.table.get(ctx, key)
		if err != nil {
			return err
		}
		if !ok {
			return notFound(f, key)
		}
		return f.Success(doc)
	}

	ref, err := field.Parse(opts.Path)
	if err != nil {
		return err
	}
	value, ok, err := s.table.getField(ctx, key, ref)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(f, key)
	}
	if f.Format == "json" {
		return f.Success(value)
	}
	fmt.Fprintln(f.Writer, string(value))
	return nil
}
