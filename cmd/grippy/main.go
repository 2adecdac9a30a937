package main

import (
	"fmt"
	"os"

	"github.com/grippy-ci/grippy/cmd/grippy/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
