package logparse

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodLine = `time="2025-08-30 14:02:11" level=info msg="Processing blocks" latestProcessedSlot/currentSlot="1234/5678"`

// TestParseLine_Match tests that both generations of the sync-progress line
// yield a sample.
func TestParseLine_Match(t *testing.T) {
	tests := []struct {
		name           string
		line           string
		wantTime       time.Time
		height, target uint64
	}{
		{
			name:     "legacy slot field",
			line:     goodLine,
			wantTime: time.Date(2025, 8, 30, 14, 2, 11, 0, time.UTC),
			height:   1234,
			target:   5678,
		},
		{
			name:     "slot pair inside message",
			line:     `time="2024-06-15 10:30:45.123" level=info msg="Processing block blah. 5000/10000 some stuff" prefix=initial-sync`,
			wantTime: time.Date(2024, 6, 15, 10, 30, 45, 123000000, time.UTC),
			height:   5000,
			target:   10000,
		},
		{
			name:     "message with block hash before the slot pair",
			line:     `time="2024-06-15 10:30:45.123" level=info msg="Processing block 0xabc. 5000/10000 blah blah" prefix=initial-sync`,
			wantTime: time.Date(2024, 6, 15, 10, 30, 45, 123000000, time.UTC),
			height:   5000,
			target:   10000,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sample, err := ParseLine(tt.line)
			require.NoError(t, err)
			require.NotNil(t, sample)

			assert.Equal(t, tt.wantTime, sample.Time)
			assert.Equal(t, tt.height, sample.Height)
			assert.Equal(t, tt.target, sample.Target)
		})
	}
}

// TestParseLine_NonMatching tests that unrelated log output is skipped silently.
func TestParseLine_NonMatching(t *testing.T) {
	lines := []string{
		"",
		"completely unrelated noise",
		`time="2025-08-30 14:02:11" level=info msg="Connected to peer"`,
		`level=info latestProcessedSlot/currentSlot="1/2"`, // no timestamp prefix
		`time="2024-06-15 10:30:45.000" level=info msg="unrelated" prefix=initial-sync`,
		`time="2024-06-15 10:30:45.000" level=info msg="Processing block done" prefix=shutdown`, // no slot pair
	}
	for _, line := range lines {
		sample, err := ParseLine(line)
		assert.NoError(t, err, line)
		assert.Nil(t, sample, line)
	}
}

// TestParseLine_Errors tests that matching lines with unusable fields are
// reported rather than silently dropped or fatal.
func TestParseLine_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{
			name: "unparsable timestamp",
			line: `time="not a timestamp" level=info latestProcessedSlot/currentSlot="1/2"`,
		},
		{
			name: "processed slot overflows uint64",
			line: `time="2025-08-30 14:02:11" level=info latestProcessedSlot/currentSlot="99999999999999999999/2"`,
		},
		{
			name: "head behind processed slot",
			line: `time="2025-08-30 14:02:11" level=info latestProcessedSlot/currentSlot="500/100"`,
		},
		{
			name: "head behind processed slot in message format",
			line: `time="2024-06-15 10:30:45.123" level=info msg="Processing block blah. 500/100 stuff" prefix=initial-sync`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sample, err := ParseLine(tt.line)
			assert.Error(t, err)
			assert.Nil(t, sample)
		})
	}
}

// TestParse_SkipsMalformed tests that a mixed input yields exactly the
// matching samples, in input order.
func TestParse_SkipsMalformed(t *testing.T) {
	lines := []string{
		`time="2025-08-30 14:00:00" level=info latestProcessedSlot/currentSlot="100/1000"`,
		"debug noise that matches nothing",
		`time="2025-08-30 14:01:00" level=info latestProcessedSlot/currentSlot="160/1000"`,
		`time="broken" level=info latestProcessedSlot/currentSlot="170/1000"`,
		`time="2025-08-30 14:02:00" level=info latestProcessedSlot/currentSlot="220/1000"`,
		// a node upgrade mid-sync switches the line format
		`time="2025-08-30 14:03:00" level=info msg="Processing block blah. 300/1000 stuff" prefix=initial-sync`,
	}

	samples, errs := Parse(lines)
	require.Len(t, samples, 4)
	require.Len(t, errs, 1)

	assert.Equal(t, uint64(100), samples[0].Height)
	assert.Equal(t, uint64(160), samples[1].Height)
	assert.Equal(t, uint64(220), samples[2].Height)
	assert.Equal(t, uint64(300), samples[3].Height)
	assert.Equal(t, 4, errs[0].Line)
	assert.ErrorContains(t, &errs[0], "bad timestamp")
}

// TestParse_Idempotent tests that parsing the same input twice yields
// identical sequences.
func TestParse_Idempotent(t *testing.T) {
	lines := []string{
		goodLine,
		"junk",
		`time="2025-08-30 14:05:00" level=info latestProcessedSlot/currentSlot="2000/5678"`,
	}

	first, firstErrs := Parse(lines)
	second, secondErrs := Parse(lines)
	assert.Equal(t, first, second)
	assert.Equal(t, firstErrs, secondErrs)
}

// TestScanner tests lazy scanning over a log stream.
func TestScanner(t *testing.T) {
	input := strings.Join([]string{
		`time="2025-08-30 14:00:00" level=info latestProcessedSlot/currentSlot="100/1000"`,
		"noise",
		`time="oops" level=info latestProcessedSlot/currentSlot="110/1000"`,
		`time="2025-08-30 14:10:00" level=info latestProcessedSlot/currentSlot="400/1000"`,
	}, "\n")

	sc := NewScanner(strings.NewReader(input))

	var heights []uint64
	for sc.Scan() {
		heights = append(heights, sc.Sample().Height)
	}
	require.NoError(t, sc.Err())

	assert.Equal(t, []uint64{100, 400}, heights)
	require.Len(t, sc.Errs(), 1)
	assert.Equal(t, 3, sc.Errs()[0].Line)
}
