package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ExitError carries the process exit code for failures that are the
// caller's fault, such as bad flags.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(context.Background(), os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run builds the command tree over the given streams and executes args
func run(ctx context.Context, in io.Reader, outW, errW io.Writer, args []string) error {
	root := newRootCmd()
	root.SetIn(in)
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
