// Command heapsnap decodes a V8 heap snapshot, computes per-node BFS
// distance and additive retain-size, persists the result into a sqlite
// database, and optionally runs ad-hoc SQL queries and writes a JSON
// ingestion summary.
package main

import (
	"fmt"
	"os"

	"github.com/heapsnap-analysis/cmd/heapsnap/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "heapsnap:", err)
		os.Exit(1)
	}
}
