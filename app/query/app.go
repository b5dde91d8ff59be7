package query

import (
	"context"
	"time"

	"github.com/canopy-network/syncx/app/query/types"
	"github.com/canopy-network/syncx/pkg/logging"
	"github.com/canopy-network/syncx/pkg/utils"
	"github.com/puzpuzpuz/xsync/v4"
)

// Initialize initializes the application.
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr'
		panic(err)
	}

	maxAge := time.Duration(utils.EnvInt("REPORT_MAX_AGE_SECONDS", 30)) * time.Second

	return &types.App{
		Logger:   logger,
		LogsPath: utils.Env("LOGS_DIR", "."),
		Cache:    xsync.NewMap[string, types.CachedReport](),
		MaxAge:   maxAge,
	}
}
