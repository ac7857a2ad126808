package main

import (
	"os"

	"propfirm/cmd/propctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
