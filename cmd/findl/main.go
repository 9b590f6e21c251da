package main

import (
	"os"

	"github.com/ledgerkit/findl/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
