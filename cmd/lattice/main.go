// Command lattice is the project's CLI entry point: store management,
// indexing, search, job control, and the MCP stdio server all live under
// internal/cli, mirroring the teacher's thin cmd/<name>/main.go ->
// internal/cli.Execute() split.
package main

import "github.com/localcortex/lattice/internal/cli"

func main() {
	cli.Execute()
}
