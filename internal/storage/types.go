package storage

import "time"

// Stats holds aggregate statistics about the visit log.
type Stats struct {
	TotalVisits int64
	UniqueURLs  int64
	OldestVisit time.Time
	NewestVisit time.Time
	TopHosts    []HostCount
}

// HostCount pairs a host with its visit count.
type HostCount struct {
	Host  string
	Count int64
}
