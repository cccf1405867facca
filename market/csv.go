package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Accepted timestamp layouts, tried in order.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var barColumns = []string{"timestamp", "open", "high", "low", "close", "volume"}

// LoadCSV reads OHLCV rows from path. See ReadCSV.
func LoadCSV(path string) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("market: open %s: %w", path, err)
	}
	defer f.Close()

	bars, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("market: %s: %w", path, err)
	}
	return bars, nil
}

// ReadCSV parses rows of
//
//	timestamp,open,high,low,close,volume
//
// A header row is required; its columns may appear in any order and extra
// columns are ignored. Timestamps are normalized to UTC and the result is
// sorted by time.
func ReadCSV(r io.Reader) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty csv")
	}
	if err != nil {
		return nil, err
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	// Yahoo-style exports name the time column "date".
	if _, ok := idx["timestamp"]; !ok {
		if i, ok := idx["date"]; ok {
			idx["timestamp"] = i
		}
	}
	for _, col := range barColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var bars []Bar
	line := 1
	for {
		row, err := cr.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}

		b, err := parseBarRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, b)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func parseBarRow(row []string, idx map[string]int) (Bar, error) {
	field := func(col string) (string, error) {
		i := idx[col]
		if i >= len(row) {
			return "", fmt.Errorf("missing %s", col)
		}
		v := strings.TrimSpace(row[i])
		if v == "" {
			return "", fmt.Errorf("empty %s", col)
		}
		return v, nil
	}

	ts, err := field("timestamp")
	if err != nil {
		return Bar{}, err
	}
	t, err := ParseTime(ts)
	if err != nil {
		return Bar{}, err
	}

	var vals [5]float64
	for i, col := range barColumns[1:] {
		s, err := field(col)
		if err != nil {
			return Bar{}, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad %s %q: %w", col, s, err)
		}
		vals[i] = v
	}

	return Bar{
		Time:   t,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

// ParseTime accepts RFC3339, "YYYY-MM-DD HH:MM:SS" and date-only values
// and returns the time in UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}

// LoadSymbols loads one CSV per symbol, restricts each series to
// [from, to], validates it and builds the shared timeline.
func LoadSymbols(paths map[string]string, from, to time.Time) (map[string][]Bar, Timeline, error) {
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("market: no symbols to load")
	}

	series := make(map[string][]Bar, len(paths))
	for sym, path := range paths {
		bars, err := LoadCSV(path)
		if err != nil {
			return nil, nil, err
		}
		bars = FilterRange(bars, from, to)
		if err := ValidateSeries(sym, bars); err != nil {
			return nil, nil, err
		}
		series[sym] = bars
	}

	tl, err := NewTimeline(series)
	if err != nil {
		return nil, nil, err
	}
	return series, tl, nil
}
