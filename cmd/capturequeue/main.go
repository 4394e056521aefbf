// Package main is the entry point for the capturequeue server binary.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/shifthive/capturequeue/cmd/capturequeue/app"
	"github.com/shifthive/capturequeue/pkg/logger"
)

func main() {
	logger.Initialize()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	if err := app.NewRootCmd().ExecuteContext(ctx); err != nil {
		logger.Errorf("error executing command: %v", err)
		os.Exit(1)
	}
}
