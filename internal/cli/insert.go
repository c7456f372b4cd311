package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewInsertCommand creates the insert command.
func NewInsertCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insert <json>",
		Short: "Insert a document and print its key",
		Long: `Insert a JSON object as a new document and print the assigned key.

Integer-keyed tables get an engine-assigned key; text-keyed tables
(--key-type text) get a UUIDv7.

Example:
  nosqlite insert '{"name":"ann","age":18}'
  nosqlite --table people --key-type text insert '{"name":"bob"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.runWithSession(cmd, func(ctx context.Context, s *session, f *OutputFormatter) error {
				return runInsert(ctx, s, f, args[0])
			})
		},
	}
	return cmd
}

func runInsert(ctx context.Context, s *session, f *OutputFormatter, doc string) error {
	if !json.Valid([]byte(doc)) {
		return usageError(f, "argument is not valid JSON")
	}
	key, err := s.table.insert(ctx, json.RawMessage(doc))
	if err != nil {
		return err
	}
	f.VerboseLog("inserted into %s", s.table.Def().Name)

	if f.Format == "json" {
		return f.Success(map[string]any{"key": key})
	}
	fmt.Fprintln(f.Writer, key)
	return nil
}
