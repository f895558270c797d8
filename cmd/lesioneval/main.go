package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess    = 0 // Evaluation ran and every gate held
	ExitGateFailed = 1 // One or more gates failed
	ExitError      = 2 // Configuration, input or runtime error
)

// GateFailureError indicates that the evaluation ran successfully,
// but one or more configured gates did not hold.
type GateFailureError struct {
	Message string
}

func (e *GateFailureError) Error() string {
	return e.Message
}

func main() {
	os.Exit(exitCode(execute()))
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintln(os.Stderr, err)

	var gateErr *GateFailureError
	if errors.As(err, &gateErr) {
		return ExitGateFailed
	}
	return ExitError
}
