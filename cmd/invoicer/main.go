package main

import (
	"os"

	"github.com/smallbiznis/invoicer/cmd/invoicer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
