package logfiles

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alitto/pond/v2"
	"github.com/canopy-network/syncx/pkg/logparse"
	"go.uber.org/zap"
)

// maxReadWorkers caps how many log files are parsed concurrently.
const maxReadWorkers = 8

// Discover resolves path to the set of log files to assess. A regular file
// is returned as-is; a directory is filtered to entries with a ".log"-style
// extension (".log", ".log1", ...), sorted lexically. Lexical order is the
// caller's chronological order; no cross-file reordering happens here.
func Discover(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if strings.HasPrefix(ext, ".log") {
			paths = append(paths, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadSamples parses every file and returns one merged, chronologically
// sorted sample sequence plus the severity tally of all scanned lines.
// Distinct files are read in parallel; each worker writes only its own result
// slot, and the merge happens in a single pass after all workers finish, so
// no partially merged sequence is ever visible.
func ReadSamples(ctx context.Context, logger *zap.Logger, paths []string) ([]logparse.Sample, logparse.LevelTally, error) {
	results := make([][]logparse.Sample, len(paths))
	tallies := make([]logparse.LevelTally, len(paths))
	readErrs := make([]error, len(paths))

	workers := len(paths)
	if workers > maxReadWorkers {
		workers = maxReadWorkers
	}
	pool := pond.NewPool(workers)
	defer pool.StopAndWait()

	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()
	for i, path := range paths {
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				return
			}
			results[i], tallies[i], readErrs[i] = readFile(logger, path)
		})
	}
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		return nil, logparse.LevelTally{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, logparse.LevelTally{}, err
	}

	total := 0
	var tally logparse.LevelTally
	for i, err := range readErrs {
		if err != nil {
			return nil, logparse.LevelTally{}, fmt.Errorf("read %s: %w", paths[i], err)
		}
		total += len(results[i])
		tally.Merge(tallies[i])
	}

	merged := make([]logparse.Sample, 0, total)
	for _, samples := range results {
		merged = append(merged, samples...)
	}
	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].Time.Before(merged[b].Time)
	})
	return merged, tally, nil
}

func readFile(logger *zap.Logger, path string) ([]logparse.Sample, logparse.LevelTally, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, logparse.LevelTally{}, err
	}
	defer f.Close()

	var samples []logparse.Sample
	sc := logparse.NewScanner(f)
	for sc.Scan() {
		samples = append(samples, sc.Sample())
	}
	if err := sc.Err(); err != nil {
		return nil, logparse.LevelTally{}, err
	}

	if errs := sc.Errs(); len(errs) > 0 {
		logger.Warn("Skipped unusable sync-progress lines",
			zap.String("file", path),
			zap.Int("skipped", len(errs)),
			zap.Error(&errs[0]))
	}
	logger.Debug("Parsed log file",
		zap.String("file", path),
		zap.Int("samples", len(samples)))
	return samples, sc.Tally(), nil
}
