package main

import (
	"os"

	"github.com/swiftdrop/hub/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
