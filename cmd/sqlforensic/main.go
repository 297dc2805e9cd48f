// Package main provides the sqlforensic CLI entrypoint.
package main

import (
	"os"

	"github.com/leapstack-labs/sqlforensic/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
