// gochat - a terminal chat client for WebSocket relays.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gochat/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "gochat: %v\n", err)
		os.Exit(1)
	}
}
