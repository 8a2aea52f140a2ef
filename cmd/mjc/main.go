package main

import (
	"os"

	"github.com/cwbudde/go-mjc/cmd/mjc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
