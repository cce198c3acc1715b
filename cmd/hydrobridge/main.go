// Command hydrobridge is the operator CLI for the orchestrator/engine bridge.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/hydrobridge/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil && !cli.IsReported(err) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
