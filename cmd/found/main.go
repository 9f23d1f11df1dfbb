// Command found is the Found. client. It runs the launch gate against
// on-device storage and talks to the Found. server for accounts and profiles.
//
//	found start                       onboarding → sign in → profile
//	found register / login / logout
//	found profile show
//	found profile edit --name Ada --skills "Go,SQL"
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
