package main

import (
	"os"

	"github.com/darwiniquina/daily-task/internal/cli"
)

func main() {
	// cobra has already printed the error by the time Execute returns
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
