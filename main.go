// Package main is the entry point for the auxmark CLI.
package main

import "auxmark.dev/pkg/auxmark/cmd"

func main() {
	cmd.Execute()
}
