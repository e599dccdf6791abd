package main

import (
	"os"

	"github.com/postboard-dev/postboard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
