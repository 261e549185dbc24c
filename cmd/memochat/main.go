package main

import (
	"os"

	"github.com/becomeliminal/memochat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
