package controller

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/canopy-network/syncx/app/query/types"
	"github.com/canopy-network/syncx/pkg/estimate"
	"github.com/canopy-network/syncx/pkg/logfiles"
	"github.com/go-jose/go-jose/v4/json"
	"go.uber.org/zap"
)

// HandleEstimate re-assesses the configured log set and returns the three
// window estimates as JSON. The last report is reused while the log set is
// unchanged and younger than the configured max age.
func (c *Controller) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	path := c.App.LogsPath

	paths, err := logfiles.Discover(path)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if len(paths) == 0 {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "no log files found"})
		return
	}

	newestMod := newestModTime(paths)
	if cached, ok := c.App.Cache.Load(path); ok &&
		cached.Files == len(paths) &&
		cached.NewestMod.Equal(newestMod) &&
		time.Since(cached.Response.AsOf) < c.App.MaxAge {
		_ = json.NewEncoder(w).Encode(cached.Response)
		return
	}

	samples, tally, err := logfiles.ReadSamples(ctx, c.App.Logger, paths)
	if err != nil {
		c.App.Logger.Error("Failed to read log files", zap.String("path", path), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	report, err := estimate.Estimate(samples, time.Now().UTC())
	if errors.Is(err, estimate.ErrInsufficientData) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	response := &types.EstimateResponse{Report: *report, LogHealth: tally}
	c.App.Cache.Store(path, types.CachedReport{
		Response:  response,
		NewestMod: newestMod,
		Files:     len(paths),
	})
	_ = json.NewEncoder(w).Encode(response)
}

func newestModTime(paths []string) time.Time {
	var newest time.Time
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}
	return newest
}
