package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/nosqlite/internal/field"
	"github.com/roach88/nosqlite/internal/queryir"
)

// EditOptions holds flags for the edit command.
type EditOptions struct {
	*RootOptions
	Op    string
	Path  string
	Value string
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <key>",
		Short: "Edit one field of a document",
		Long: `Edit the value at --path in the document stored under key.

Operations:
  set      create or overwrite the value
  insert   write the value only if the path is absent
  replace  overwrite the value only if the path is present
  remove   delete the value

Prints the number of documents changed (0 when the edit did not apply).

Example:
  nosqlite edit 1 --op set --path age --value 19
  nosqlite edit 1 --op remove --path tags[0]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runWithSession(cmd, func(ctx context.Context, s *session, f *OutputFormatter) error {
				return runEdit(ctx, opts, s, f, args[0])
			})
		},
	}

	cmd.Flags().StringVar(&opts.Op, "op", "set", "edit operation (set|insert|replace|remove)")
	cmd.Flags().StringVarP(&opts.Path, "path", "p", "", "field to edit (required)")
	cmd.Flags().StringVar(&opts.Value, "value", "", "new value as JSON")
	_ = cmd.MarkFlagRequired("path")

	return cmd
}

func runEdit(ctx context.Context, opts *EditOptions, s *session, f *OutputFormatter, key string) error {
	kind, ok := queryir.ParseEditKind(opts.Op)
	if !ok || kind == queryir.EditPatch {
		return usageError(f, "invalid --op %q: must be one of set, insert, replace, remove", opts.Op)
	}
	ref, err := field.Parse(opts.Path)
	if err != nil {
		return err
	}

	var e queryir.Edit
	if kind == queryir.EditRemove {
		e = queryir.Remove(ref)
	} else {
		if !json.Valid([]byte(opts.Value)) {
			return usageError(f, "--value is not valid JSON")
		}
		value := json.RawMessage(opts.Value)
		switch kind {
		case queryir.EditInsert:
			e = queryir.InsertIfAbsent(ref, value)
		case queryir.EditReplace:
			e = queryir.ReplaceIfPresent(ref, value)
		default:
			e = queryir.Set(ref, value)
		}
	}

	target, err := s.table.keyTarget(key)
	if err != nil {
		return err
	}
	n, err := s.table.apply(ctx, target, e)
	if err != nil {
		return err
	}
	return outputAffected(f, n)
}

// NewPatchCommand creates the patch command.
func NewPatchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch <key> <json>",
		Short: "Merge a partial document into a document",
		Long: `Merge a JSON object into the document stored under key (RFC 7396):
nested objects merge recursively and null removes a key.

Example:
  nosqlite patch 1 '{"address":{"city":"Oslo"},"nickname":null}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.runWithSession(cmd, func(ctx context.Context, s *session, f *OutputFormatter) error {
				if !json.Valid([]byte(args[1])) {
					return usageError(f, "argument is not valid JSON")
				}
				target, err := s.table.keyTarget(args[0])
				if err != nil {
					return err
				}
				n, err := s.table.apply(ctx, target, queryir.Patch(json.RawMessage(args[1])))
				if err != nil {
					return err
				}
				return outputAffected(f, n)
			})
		},
	}
	return cmd
}

// outputAffected prints an affected-row count.
func outputAffected(f *OutputFormatter, n int64) error {
	if f.Format == "json" {
		return f.Success(map[string]int64{"affected": n})
	}
	fmt.Fprintln(f.Writer, n)
	return nil
}
