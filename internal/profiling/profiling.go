// Package profiling accumulates per-frame CPU time under named sections.
//
//	defer profiling.Track("terrain.Draw")()
package profiling

import (
	"cmp"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	mu          sync.Mutex
	frameTotals = make(map[string]time.Duration)
)

// Track starts timing name and returns the function that stops it.
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		frameTotals[name] += d
		mu.Unlock()
	}
}

// Add records d under name.
func Add(name string, d time.Duration) {
	mu.Lock()
	frameTotals[name] += d
	mu.Unlock()
}

// ResetFrame clears the totals. Call once at the start of every frame.
func ResetFrame() {
	mu.Lock()
	clear(frameTotals)
	mu.Unlock()
}

// Snapshot copies the current totals.
func Snapshot() map[string]time.Duration {
	mu.Lock()
	defer mu.Unlock()
	return maps.Clone(frameTotals)
}

// Entry is one timed section.
type Entry struct {
	Name     string
	Duration time.Duration
}

// Top returns the n slowest sections, slowest first. Ties sort by name.
func Top(n int) []Entry {
	ss := Snapshot()
	list := make([]Entry, 0, len(ss))
	for k, v := range ss {
		list = append(list, Entry{k, v})
	}
	slices.SortFunc(list, func(a, b Entry) int {
		if c := cmp.Compare(b.Duration, a.Duration); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return list[:min(n, len(list))]
}

// TopN formats the n slowest sections, e.g. "terrain.Draw:4.2ms, frame.Poll:0.3ms".
func TopN(n int) string {
	top := Top(n)
	parts := make([]string, len(top))
	for i, e := range top {
		parts[i] = e.Name + ":" + formatMs(e.Duration)
	}
	return strings.Join(parts, ", ")
}

// SumWithPrefix totals every section whose name starts with prefix.
func SumWithPrefix(prefix string) time.Duration {
	mu.Lock()
	defer mu.Unlock()
	var total time.Duration
	for k, v := range frameTotals {
		if strings.HasPrefix(k, prefix) {
			total += v
		}
	}
	return total
}

// Fields returns the n slowest sections as zap fields.
func Fields(n int) []zap.Field {
	top := Top(n)
	fields := make([]zap.Field, len(top))
	for i, e := range top {
		fields[i] = zap.Duration(e.Name, e.Duration)
	}
	return fields
}

// formatMs renders d in milliseconds with one decimal, dropping ".0".
func formatMs(d time.Duration) string {
	tenths := (d.Microseconds() + 50) / 100
	s := strconv.FormatInt(tenths/10, 10)
	if frac := tenths % 10; frac != 0 {
		s += "." + strconv.FormatInt(frac, 10)
	}
	return s + "ms"
}
