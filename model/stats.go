package model

import "fmt"

// RunStats are the aggregate counters of one batch run. The identity
// Scanned == Succeeded + Failed + Skipped + FetchErrors holds at run
// completion for every pool size.
type RunStats struct {
	Scanned     int64 `json:"scanned"`
	Matched     int64 `json:"matched"`
	Succeeded   int64 `json:"succeeded"`
	Failed      int64 `json:"failed"`
	Skipped     int64 `json:"skipped"`
	FetchErrors int64 `json:"fetch_errors"`
	// BytesAffected accumulates the byte total of successful actions.
	BytesAffected int64 `json:"bytes_affected"`
}

func (s *RunStats) String() string {
	sizeMB := float64(s.BytesAffected) / (1024 * 1024)
	return fmt.Sprintf("scanned=%d, matched=%d, succeeded=%d, failed=%d, skipped=%d, fetch_errors=%d, bytes=%d (%.2f MB)",
		s.Scanned, s.Matched, s.Succeeded, s.Failed, s.Skipped, s.FetchErrors, s.BytesAffected, sizeMB)
}

// Report is the immutable result of a completed run. Items are in
// original load order regardless of worker completion order.
type Report struct {
	Stats RunStats
	Items []*WorkItem
}
