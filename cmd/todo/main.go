// Package main is the command-line client for the todo API.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fail(err.Error())
		os.Exit(1)
	}
}

func fail(msg string) {
	failTo(os.Stderr, msg)
}

func failTo(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render("✗ "+msg))
}
