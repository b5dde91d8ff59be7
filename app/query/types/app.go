package types

import (
	"context"
	"net/http"
	"time"

	"github.com/canopy-network/syncx/pkg/estimate"
	"github.com/canopy-network/syncx/pkg/logparse"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
)

// EstimateResponse is the /estimate payload: the three window estimates plus
// a severity summary of the scanned log set.
type EstimateResponse struct {
	estimate.Report
	LogHealth logparse.LevelTally `json:"logHealth"`
}

// CachedReport is a memoized assessment of one log set. It stays valid while
// the newest file's mtime and the file count are unchanged and the report is
// younger than the refresh interval.
type CachedReport struct {
	Response  *EstimateResponse
	NewestMod time.Time
	Files     int
}

type App struct {
	// Zap Logger
	Logger *zap.Logger
	// LogsPath is the file or directory being assessed.
	LogsPath string
	// Cache holds the last computed report per logs path.
	Cache *xsync.Map[string, CachedReport]
	// MaxAge bounds how long a cached report may be served before the
	// estimate is recomputed against a fresh "now".
	MaxAge time.Duration
	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
}

// Start starts the application and blocks until the context is canceled.
func (a *App) Start(ctx context.Context) {
	go func() { _ = a.Server.ListenAndServe() }()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("Failed to shut down server", zap.Error(err))
	}
	a.Logger.Info("さようなら!")
}
