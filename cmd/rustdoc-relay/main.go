// Package main provides the entry point for the rustdoc-relay CLI.
package main

import (
	"os"

	"github.com/huhu/rustdoc-relay/cmd/rustdoc-relay/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
