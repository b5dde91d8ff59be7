package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/canopy-network/syncx/app/assessor"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	defer cancel()

	app := assessor.Initialize(ctx)

	if err := app.Run(ctx); err != nil {
		app.Logger.Fatal("Assessment failed", zap.Error(err))
	}
}
