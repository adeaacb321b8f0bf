// File: cmd/codescalpel/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/xkilldash9x/codescalpel/cmd"
	"github.com/xkilldash9x/codescalpel/internal/observability"
)

const panicLogFile = "codescalpel-panic.log"

// Exit codes.
const (
	exitOK        = 0
	exitFindings  = 1
	exitError     = 2
	exitCancelled = 130
)

// Function variables for mocking in tests.
var (
	osWriteFile = os.WriteFile
	osExit      = os.Exit
)

func main() {
	defer handlePanic()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	osExit(exitCode(cmd.Execute(ctx)))
}

// exitCode maps the result of a command to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, cmd.ErrThresholdExceeded):
		return exitFindings
	case errors.Is(err, context.Canceled):
		return exitCancelled
	default:
		return exitError
	}
}

// handlePanic writes the stack of an unrecovered panic to a log file and
// exits with the error status.
func handlePanic() {
	r := recover()
	if r == nil {
		return
	}
	observability.Sync()

	panicMessage := fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())
	if err := osWriteFile(panicLogFile, []byte(panicMessage), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to write panic log: %v\n", err)
		fmt.Fprintf(os.Stderr, "Panic details:\n%s\n", panicMessage)
		osExit(exitError)
		return
	}

	fmt.Fprintf(os.Stderr, "codescalpel crashed: %v\nDetails logged to %s\n", r, panicLogFile)
	osExit(exitError)
}
