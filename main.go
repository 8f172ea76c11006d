package main

import (
	"os"

	"github.com/coverageiq/coverageiq/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
