package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
)

func main() {
	ctx := context.Background()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}
