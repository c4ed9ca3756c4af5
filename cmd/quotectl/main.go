package main

import (
	"os"

	"github.com/Simplici0/pricepilot/cmd/quotectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
