package estimate

import (
	"errors"
	"time"

	"github.com/canopy-network/syncx/pkg/logparse"
)

// Window identifies the timeframe a rate estimate is computed over.
type Window string

const (
	AllTime  Window = "all_time"
	LastDay  Window = "last_day"
	LastHour Window = "last_hour"
)

// span returns the lookback duration of the window, zero meaning unbounded.
func (w Window) span() time.Duration {
	switch w {
	case LastDay:
		return 24 * time.Hour
	case LastHour:
		return time.Hour
	}
	return 0
}

// ErrInsufficientData is returned when fewer than two samples are supplied;
// a rate needs a delta.
var ErrInsufficientData = errors.New("estimate: need at least 2 samples")

// maxHorizon bounds how far ahead an extrapolation may land. A crawling but
// technically positive rate would otherwise overflow time.Duration and report
// a completion in the past; beyond this bound the window counts as stalled.
const maxHorizon = 10 * 365 * 24 * time.Hour

// RateEstimate is the sync-rate assessment for one window.
//
// CompletesAt is the plain linear extrapolation against the latest known
// head. AdjustedCompletesAt additionally accounts for the head advancing
// while the node catches up; it equals CompletesAt when the head is static.
// Both are nil when the window is stalled (no usable rate).
type RateEstimate struct {
	Window              Window     `json:"window"`
	BlocksPerSecond     float64    `json:"blocksPerSecond"`
	HeadBlocksPerSecond float64    `json:"headBlocksPerSecond"`
	CompletesAt         *time.Time `json:"completesAt,omitempty"`
	AdjustedCompletesAt *time.Time `json:"adjustedCompletesAt,omitempty"`
	Stalled             bool       `json:"stalled"`
	SampleCount         int        `json:"sampleCount"`
}

// Report carries the three window estimates. All three slots are always
// present, possibly stalled, never omitted.
type Report struct {
	Latest    logparse.Sample `json:"latest"`
	Remaining int64           `json:"remaining"`
	AsOf      time.Time       `json:"asOf"`

	AllTime  RateEstimate `json:"allTime"`
	LastDay  RateEstimate `json:"lastDay"`
	LastHour RateEstimate `json:"lastHour"`
}

// Estimates returns the three window estimates in fixed report order.
func (r *Report) Estimates() []RateEstimate {
	return []RateEstimate{r.AllTime, r.LastDay, r.LastHour}
}

// Estimate computes the three window estimates from a chronologically ordered
// sample sequence. It is a pure function of its arguments: now is never read
// from the clock, so the same inputs always produce the same report.
//
// Remaining work is measured against the latest sample's target for every
// window, so the three ETAs extrapolate toward the same goal even when the
// head moved between samples.
func Estimate(samples []logparse.Sample, now time.Time) (*Report, error) {
	if len(samples) < 2 {
		return nil, ErrInsufficientData
	}

	latest := samples[len(samples)-1]
	report := &Report{
		Latest:    latest,
		Remaining: latest.Remaining(),
		AsOf:      now,
	}
	report.AllTime = estimateWindow(AllTime, samples, report.Remaining, now)
	report.LastDay = estimateWindow(LastDay, samples, report.Remaining, now)
	report.LastHour = estimateWindow(LastHour, samples, report.Remaining, now)
	return report, nil
}

func estimateWindow(w Window, samples []logparse.Sample, remaining int64, now time.Time) RateEstimate {
	est := RateEstimate{Window: w}

	in := samples
	if span := w.span(); span > 0 {
		in = within(samples, now.Add(-span))
	}
	est.SampleCount = len(in)

	// A fully caught-up node completes now in every window, whatever the
	// historical rate was.
	if remaining <= 0 {
		at := now
		est.CompletesAt = &at
	}

	if len(in) < 2 {
		est.Stalled = est.CompletesAt == nil
		return est
	}

	first, last := in[0], in[len(in)-1]
	elapsed := last.Time.Sub(first.Time).Seconds()
	if elapsed <= 0 {
		// All samples share one timestamp; the rate is undefined.
		est.Stalled = est.CompletesAt == nil
		return est
	}

	est.BlocksPerSecond = (float64(last.Height) - float64(first.Height)) / elapsed
	est.HeadBlocksPerSecond = (float64(last.Target) - float64(first.Target)) / elapsed

	if est.CompletesAt != nil {
		// Already synced; the rates above are informational only.
		return est
	}
	if est.BlocksPerSecond <= 0 {
		est.Stalled = true
		return est
	}

	etaSeconds := float64(remaining) / est.BlocksPerSecond
	if etaSeconds > maxHorizon.Seconds() {
		est.Stalled = true
		return est
	}
	at := now.Add(time.Duration(etaSeconds * float64(time.Second)))
	est.CompletesAt = &at

	// The head keeps growing while the node works through the backlog; add
	// the growth expected during the first-pass estimate and extrapolate
	// again. Left nil when even the adjusted pass lands past the horizon.
	adjustedSeconds := (float64(remaining) + est.HeadBlocksPerSecond*etaSeconds) / est.BlocksPerSecond
	if adjustedSeconds <= maxHorizon.Seconds() {
		adjustedAt := now.Add(time.Duration(adjustedSeconds * float64(time.Second)))
		est.AdjustedCompletesAt = &adjustedAt
	}

	return est
}

// within returns the suffix of the chronologically ordered samples whose
// timestamps are at or after cutoff.
func within(samples []logparse.Sample, cutoff time.Time) []logparse.Sample {
	for i, s := range samples {
		if !s.Time.Before(cutoff) {
			return samples[i:]
		}
	}
	return nil
}
