package audioevents

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"reelscan/internal/editmap"
)

const (
	startMarker = "silence_start:"
	endMarker   = "silence_end:"
)

var (
	// ErrUnpairedSilence reports a silence_start with no closing silence_end.
	ErrUnpairedSilence = errors.New("unpaired silence marker")
	// ErrMalformedTrace reports a marker whose timestamp does not parse.
	ErrMalformedTrace = errors.New("malformed silencedetect trace")
)

// ParseSilenceTrace pairs silence_start and silence_end markers in trace
// order. Each end closes the most recently opened start that is still open.
// A start left open at the end of the trace, or an end with nothing open,
// is an error.
func ParseSilenceTrace(r io.Reader) ([]editmap.Silence, error) {
	var (
		silences []editmap.Silence
		open     []float64
		lineNo   int
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		switch {
		case strings.Contains(line, startMarker):
			value, err := markerValue(line, startMarker)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedTrace, lineNo, err)
			}
			open = append(open, value)
		case strings.Contains(line, endMarker):
			value, err := markerValue(line, endMarker)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedTrace, lineNo, err)
			}
			if len(open) == 0 {
				return nil, fmt.Errorf("%w: silence_end at %v without start (line %d)", ErrUnpairedSilence, value, lineNo)
			}
			start := open[len(open)-1]
			open = open[:len(open)-1]
			silences = append(silences, editmap.Silence{Start: start, End: value})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read silencedetect trace: %w", err)
	}
	if len(open) > 0 {
		return nil, fmt.Errorf("%w: %d silence_start marker(s) never closed", ErrUnpairedSilence, len(open))
	}
	return silences, nil
}

// ParseSilenceOutput is ParseSilenceTrace over an in-memory trace.
func ParseSilenceOutput(output []byte) ([]editmap.Silence, error) {
	return ParseSilenceTrace(bytes.NewReader(output))
}

// markerValue reads the first field after marker, e.g.
// "[silencedetect @ 0x..] silence_end: 12.5 | silence_duration: 2.1".
func markerValue(line, marker string) (float64, error) {
	_, rest, _ := strings.Cut(line, marker)
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return 0, fmt.Errorf("missing value after %q", marker)
	}
	return strconv.ParseFloat(fields[0], 64)
}
