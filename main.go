package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/rednote-cli/cmd"
	"github.com/xkilldash9x/rednote-cli/internal/observability"
)

// Exit codes: 0 success, 1 no authenticated session, 2 anything broke.
const (
	exitOK          = 0
	exitNotLoggedIn = 1
	exitFailure     = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	defer observability.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, cmd.ErrNotLoggedIn):
		return exitNotLoggedIn
	case errors.Is(err, context.Canceled):
		return exitOK
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitFailure
	}
}
