package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type statusJSON struct {
	Version       string          `json:"version"`
	TotalVisits   int64           `json:"total_visits"`
	UniqueURLs    int64           `json:"unique_urls"`
	OldestVisit   string          `json:"oldest_visit,omitempty"`
	NewestVisit   string          `json:"newest_visit,omitempty"`
	RetentionDays int             `json:"retention_days"`
	TopHosts      []hostCountJSON `json:"top_hosts"`
}

type hostCountJSON struct {
	Host  string `json:"host"`
	Count int64  `json:"count"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	return withSession(c.globals, c.sess, func(s *session) error {
		stats, err := s.store.Stats(context.Background())
		if err != nil {
			return errors.Wrap(err, "get stats")
		}

		if c.globals != nil && c.globals.JSON {
			out := statusJSON{
				Version:       c.version,
				TotalVisits:   stats.TotalVisits,
				UniqueURLs:    stats.UniqueURLs,
				RetentionDays: s.cfg.Retention.Days,
				TopHosts:      make([]hostCountJSON, len(stats.TopHosts)),
			}
			if stats.TotalVisits > 0 {
				out.OldestVisit = stats.OldestVisit.UTC().Format(time.RFC3339)
				out.NewestVisit = stats.NewestVisit.UTC().Format(time.RFC3339)
			}
			for i, h := range stats.TopHosts {
				out.TopHosts[i] = hostCountJSON{Host: h.Host, Count: h.Count}
			}
			return printJSON(out)
		}

		fmt.Println("backtrail status")
		fmt.Println("================")
		fmt.Printf("Version:       %s\n", c.version)
		fmt.Printf("Visits:        %s\n", formatNumber(stats.TotalVisits))
		fmt.Printf("Unique URLs:   %s\n", formatNumber(stats.UniqueURLs))
		if stats.TotalVisits > 0 {
			fmt.Printf("Oldest:        %s\n", stats.OldestVisit.Local().Format("2006-01-02 15:04"))
			fmt.Printf("Newest:        %s\n", stats.NewestVisit.Local().Format("2006-01-02 15:04"))
		}
		fmt.Printf("Retention:     %d days\n", s.cfg.Retention.Days)

		if len(stats.TopHosts) > 0 {
			fmt.Println()
			fmt.Println("Top Hosts:")
			for _, h := range stats.TopHosts {
				fmt.Printf("  %-24s %s\n", h.Host, formatNumber(h.Count))
			}
		}
		return nil
	})
}

// formatNumber formats an int64 with comma separators.
func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
