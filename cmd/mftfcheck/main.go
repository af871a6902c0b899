package main

import (
	"errors"
	"fmt"
	"os"

	ckerrors "mftfcheck/internal/errors"
)

// Exit codes
const (
	exitOK      = 0
	exitFailOn  = 1
	exitFailure = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err == nil {
		return exitOK
	}

	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var ckErr *ckerrors.Error
	if errors.As(err, &ckErr) {
		for _, fix := range ckErr.SuggestedFixes {
			if fix.Command != "" {
				fmt.Fprintf(os.Stderr, "  Try: %s\n", fix.Command)
			} else if fix.Description != "" {
				fmt.Fprintf(os.Stderr, "  Hint: %s\n", fix.Description)
			}
		}
	}
	return exitFailure
}

// exitError ends a command with a specific status and no message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}
