package logparse

import "strings"

const (
	warnKeyword  = "level=warning"
	errorKeyword = "level=error"
)

// LevelTally counts scanned log lines by severity. Rates are percentages of
// all lines seen, zero when nothing was scanned.
type LevelTally struct {
	Lines    int `json:"lines"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// Add classifies one line. A line carrying both keywords counts as an error.
func (t *LevelTally) Add(line string) {
	t.Lines++
	switch {
	case strings.Contains(line, errorKeyword):
		t.Errors++
	case strings.Contains(line, warnKeyword):
		t.Warnings++
	}
}

// Merge folds another tally into this one.
func (t *LevelTally) Merge(other LevelTally) {
	t.Lines += other.Lines
	t.Warnings += other.Warnings
	t.Errors += other.Errors
}

func (t LevelTally) WarningRate() float64 {
	if t.Lines == 0 {
		return 0
	}
	return 100 * float64(t.Warnings) / float64(t.Lines)
}

func (t LevelTally) ErrorRate() float64 {
	if t.Lines == 0 {
		return 0
	}
	return 100 * float64(t.Errors) / float64(t.Lines)
}

// TallyLines classifies every line in one pass. Pure companion to Parse for
// callers holding the lines in memory.
func TallyLines(lines []string) LevelTally {
	var t LevelTally
	for _, line := range lines {
		t.Add(line)
	}
	return t
}
