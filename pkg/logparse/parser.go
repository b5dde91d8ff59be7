package logparse

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"time"
)

// Sample is a single sync-progress observation taken from one log line: at
// Time the node had processed Height slots out of a chain head at Target.
type Sample struct {
	Time   time.Time `json:"time"`
	Height uint64    `json:"height"`
	Target uint64    `json:"target"`
}

// Remaining returns how many slots are left to the chain head. Negative when
// the node reports itself past the head.
func (s Sample) Remaining() int64 {
	return int64(s.Target) - int64(s.Height)
}

// ParseError describes a line that looked like a sync-progress line but could
// not be turned into a Sample. It is recorded and skipped, never fatal.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Two generations of the sync-progress line are recognized. Newer node
// versions emit the slot pair inside the message:
//
//	time="2024-06-15 10:30:45.123" level=info msg="Processing block 0xabc. 5000/10000 ..." prefix=initial-sync
//
// while older ones carry a dedicated field:
//
//	time="2025-08-30 14:02:11" level=info msg="Processing blocks" latestProcessedSlot/currentSlot="123/456"
//
// Extra fields between the timestamp and the slot pair are tolerated in both.
var (
	lineRe    = regexp.MustCompile(`^time="([^"]+)"\s+level.*msg="Processing block [^"]*?(\d+)/(\d+)[^"]*"\s+prefix=initial-sync`)
	oldLineRe = regexp.MustCompile(`^time="([^"]+)"\s+level.*latestProcessedSlot/currentSlot="(\d+)/(\d+)"`)
)

// Fractional seconds in the input are accepted even though the layout omits
// them.
const timeLayout = "2006-01-02 15:04:05"

// ParseLine matches line against the sync-progress grammar, trying the newer
// format first and falling back to the legacy one. It returns (nil, nil) for
// lines that are not sync-progress lines at all, and a non-nil error for
// lines that match the grammar but carry unusable fields. Timestamps are
// interpreted as UTC.
func ParseLine(line string) (*Sample, error) {
	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		m = oldLineRe.FindStringSubmatch(line)
	}
	if m == nil {
		return nil, nil
	}

	ts, err := time.ParseInLocation(timeLayout, m[1], time.UTC)
	if err != nil {
		return nil, fmt.Errorf("bad timestamp %q: %w", m[1], err)
	}
	height, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad processed slot %q: %w", m[2], err)
	}
	target, err := strconv.ParseUint(m[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad head slot %q: %w", m[3], err)
	}
	if target < height {
		// Head behind progress means a misreported line, not real progress.
		return nil, fmt.Errorf("head slot %d behind processed slot %d", target, height)
	}

	return &Sample{Time: ts, Height: height, Target: target}, nil
}

// Parse converts lines into samples, preserving input order. Lines that do
// not match the grammar are dropped silently; matching lines with unusable
// fields are dropped and reported in the returned ParseError slice.
func Parse(lines []string) ([]Sample, []ParseError) {
	samples := make([]Sample, 0, len(lines))
	var errs []ParseError
	for i, line := range lines {
		sample, err := ParseLine(line)
		if err != nil {
			errs = append(errs, ParseError{Line: i + 1, Text: line, Err: err})
			continue
		}
		if sample == nil {
			continue
		}
		samples = append(samples, *sample)
	}
	return samples, errs
}

// Scanner yields samples from a log stream one at a time, in input order.
// It follows the bufio.Scanner idiom: the sequence is consumed once and
// cannot be restarted.
type Scanner struct {
	scanner *bufio.Scanner
	sample  Sample
	errs    []ParseError
	tally   LevelTally
	line    int
}

// NewScanner returns a Scanner reading log lines from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{scanner: bufio.NewScanner(r)}
}

// Scan advances to the next sync-progress sample. It returns false when the
// input is exhausted or the underlying reader failed; check Err afterwards.
func (sc *Scanner) Scan() bool {
	for sc.scanner.Scan() {
		sc.line++
		text := sc.scanner.Text()
		sc.tally.Add(text)
		sample, err := ParseLine(text)
		if err != nil {
			sc.errs = append(sc.errs, ParseError{Line: sc.line, Text: text, Err: err})
			continue
		}
		if sample == nil {
			continue
		}
		sc.sample = *sample
		return true
	}
	return false
}

// Sample returns the sample produced by the last successful Scan.
func (sc *Scanner) Sample() Sample { return sc.sample }

// Errs returns the per-line parse errors accumulated so far.
func (sc *Scanner) Errs() []ParseError { return sc.errs }

// Tally returns the severity counts of all lines consumed so far.
func (sc *Scanner) Tally() LevelTally { return sc.tally }

// Err returns the first error of the underlying reader, if any.
func (sc *Scanner) Err() error { return sc.scanner.Err() }
