package main

import (
	"os"

	"datecalc/cmd/datecalc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
