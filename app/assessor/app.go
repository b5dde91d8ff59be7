package assessor

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/canopy-network/syncx/pkg/estimate"
	"github.com/canopy-network/syncx/pkg/logfiles"
	"github.com/canopy-network/syncx/pkg/logging"
	"github.com/canopy-network/syncx/pkg/utils"
	"go.uber.org/zap"
)

type App struct {
	Logger   *zap.Logger
	LogsPath string
	Out      io.Writer
}

// Initialize initializes the application. The logs path comes from the first
// command-line argument, falling back to the LOGS_DIR environment variable.
func Initialize(ctx context.Context) *App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr'
		panic(err)
	}

	logsPath := utils.Env("LOGS_DIR", ".")
	if len(os.Args) > 1 {
		logsPath = os.Args[1]
	}

	return &App{
		Logger:   logger,
		LogsPath: logsPath,
		Out:      os.Stdout,
	}
}

// Run executes the pipeline once: discover log files, parse them, estimate,
// and render the report to Out.
func (a *App) Run(ctx context.Context) error {
	paths, err := logfiles.Discover(a.LogsPath)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no log files under %s", a.LogsPath)
	}
	a.Logger.Info("Assessing sync logs",
		zap.String("path", a.LogsPath),
		zap.Int("files", len(paths)))

	samples, tally, err := logfiles.ReadSamples(ctx, a.Logger, paths)
	if err != nil {
		return err
	}
	a.Logger.Debug("Merged samples", zap.Int("samples", len(samples)))

	report, err := estimate.Estimate(samples, time.Now().UTC())
	if err != nil {
		return err
	}
	return Render(a.Out, report, tally)
}
