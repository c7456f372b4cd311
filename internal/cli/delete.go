package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/nosqlite/internal/queryir"
)

// DeleteOptions holds flags for the delete command.
type DeleteOptions struct {
	*RootOptions
	QueryFile string
	All       bool
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete [key]",
		Short: "Delete documents",
		Long: `Delete the document stored under key, every document matching the
where clause of --query, or every document with --all.

Example:
  nosqlite delete 1
  nosqlite delete --query inactive.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runWithSession(cmd, func(ctx context.Context, s *session, f *OutputFormatter) error {
				return runDelete(ctx, opts, s, f, args)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.QueryFile, "query", "q", "", "query file whose where clause selects the rows")
	cmd.Flags().BoolVar(&opts.All, "all", false, "delete every document")

	return cmd
}

func runDelete(ctx context.Context, opts *DeleteOptions, s *session, f *OutputFormatter, args []string) error {
	selectors := len(args)
	if opts.QueryFile != "" {
		selectors++
	}
	if opts.All {
		selectors++
	}
	if selectors != 1 {
		return usageError(f, "give exactly one of <key>, --query or --all")
	}

	var target queryir.Target
	switch {
	case len(args) == 1:
		t, err := s.table.keyTarget(args[0])
		if err != nil {
			return err
		}
		target = t
	case opts.All:
		target = queryir.AllRows()
	default:
		qf, err := LoadQueryFile(opts.QueryFile)
		if err != nil {
			return queryFileError(f, err)
		}
		if qf.Where == nil {
			return usageError(f, "%s has no where clause; use --all to delete everything", opts.QueryFile)
		}
		cond, err := qf.Where.Build()
		if err != nil {
			return queryFileError(f, err)
		}
		target = queryir.Where(cond)
	}

	n, err := s.table.delete(ctx, target)
	if err != nil {
		return err
	}
	return outputAffected(f, n)
}
