// Package main implements kencana, the command-line interface to the farm
// state: crops, reminders, harvest forecasts and snapshots.
//
// Configuration comes from KENCANA_* environment variables and an optional
// .env file (see internal/config). Every command shares storage with the
// MCP server and with other kencana processes; "kencana watch" prints
// changes made elsewhere as they happen.
//
// Exit codes:
//   - 0: Success
//   - 1: Error (invalid arguments, unknown ids, storage failure)
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// run executes the command line args with the given streams and returns an
// exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return execute(ctx, newApp(stdin, stdout, stderr), args)
}

func execute(ctx context.Context, a *app, args []string) int {
	root := newRootCmd(a)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if closeErr := a.close(); err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
