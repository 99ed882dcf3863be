// Command qtree loads query tree definitions and evaluates, translates or
// validates them.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/qtree/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		os.Exit(cli.ExitSuccess)
	}

	// Commands report their own failures; usage errors from cobra are
	// silenced and printed here.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
