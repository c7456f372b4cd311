package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/nosqlite/internal/queryir"
)

// FindOptions holds flags for the find command.
type FindOptions struct {
	*RootOptions
	QueryFile string
	Fields    string
	Sort      string
	Limit     int
	Offset    int
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Query documents",
		Long: `Query documents, optionally filtered by a query file.

The query file (.yaml or .cue) may set where, sort, fields, limit and
offset; the matching flags override it.

Example:
  nosqlite find --sort -age --limit 10
  nosqlite find --query adults.yaml --fields name,age`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runWithSession(cmd, func(ctx context.Context, s *session, f *OutputFormatter) error {
				return runFind(ctx, opts, s, f)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.QueryFile, "query", "q", "", "query file (.yaml or .cue)")
	cmd.Flags().StringVar(&opts.Fields, "fields", "", "comma-separated fields to project")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "comma-separated sort keys, - for descending")
	cmd.Flags().IntVar(&opts.Limit, "limit", -1, "maximum number of rows")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "rows to skip")

	return cmd
}

// buildQuery merges the query file with the flag overrides.
func (opts *FindOptions) buildQuery(t queryir.Table) (queryir.Select, error) {
	qf := &QueryFile{}
	if opts.QueryFile != "" {
		loaded, err := LoadQueryFile(opts.QueryFile)
		if err != nil {
			return queryir.Select{}, err
		}
		qf = loaded
	}
	if opts.Fields != "" {
		qf.Fields = splitList(opts.Fields)
	}
	if opts.Sort != "" {
		qf.Sort = splitList(opts.Sort)
	}
	if opts.Limit >= 0 {
		qf.Limit = &opts.Limit
	}
	if opts.Offset > 0 {
		qf.Offset = &opts.Offset
	}
	return qf.Build(t)
}

func runFind(ctx context.Context, opts *FindOptions, s *session, f *OutputFormatter) error {
	q, err := opts.buildQuery(s.table.Def())
	if err != nil {
		return queryFileError(f, err)
	}

	results, err := s.table.find(ctx, q)
	if err != nil {
		return err
	}
	f.VerboseLog("%d row(s)", len(results))

	if f.Format == "json" {
		if results == nil {
			results = []Result{}
		}
		return f.Success(results)
	}
	for _, r := range results {
		fmt.Fprintln(f.Writer, r)
	}
	return nil
}

// queryFileError reports a query file or query flag problem. Library
// errors keep their own code.
func queryFileError(f *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		_ = f.Error(ErrCodeQueryFile, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeQueryFile, err)
	}
	return f.Fail(err)
}
