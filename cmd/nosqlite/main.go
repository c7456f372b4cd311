// Command nosqlite stores, queries and edits JSON documents in SQLite.
package main

import (
	"os"

	"github.com/roach88/nosqlite/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
