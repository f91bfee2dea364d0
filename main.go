package main

import (
	"os"

	"github.com/moritz-zoellner/pyrope/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
