package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/runnerr0/backtrail/internal/history"
)

// Execute implements the go-flags Commander interface for SearchCommand.
func (c *SearchCommand) Execute(args []string) error {
	return withSession(c.globals, c.sess, func(s *session) error {
		return c.run(context.Background(), s, strings.Join(args, " "))
	})
}

func (c *SearchCommand) window(now time.Time) (history.Window, error) {
	if c.Since == "" || c.Since == "all" {
		return history.AllTime, nil
	}
	dur, err := parseDuration(c.Since)
	if err != nil {
		return history.Window{}, errors.Wrapf(err, "invalid --since value %q", c.Since)
	}
	return history.Window{Since: now.Add(-dur), Until: now}, nil
}

func (c *SearchCommand) run(ctx context.Context, s *session, query string) error {
	w, err := c.window(time.Now())
	if err != nil {
		return err
	}

	stream := s.engine.Search(ctx, query, history.SearchOptions{
		MaxResults: c.Limit,
		Window:     w,
	})
	defer stream.Close()

	if c.globals != nil && c.globals.JSON {
		return c.printJSON(query, stream)
	}
	return c.printHuman(query, stream)
}

// printHuman writes each result as soon as the stream produces it.
func (c *SearchCommand) printHuman(query string, stream *history.Stream) error {
	for rec := range stream.Records() {
		n := stream.Yielded()
		title := rec.Title
		if title == "" {
			title = rec.Host + rec.Pathname
		}
		fmt.Printf("%d. %s \u2014 %s\n", n, title, rec.Host)
		fmt.Printf("   %s\n", rec.URL)
		fmt.Printf("   %s \u00b7 %s\n", rec.Timestamp.Local().Format("2006-01-02 15:04"), rec.ID)
	}
	n := stream.Yielded()
	if err := stream.Err(); err != nil {
		return errors.Wrapf(err, "search stopped after %d %s", n, plural(n, "result", "results"))
	}

	switch {
	case n == 0 && query != "":
		fmt.Printf("No results found for %q\n", query)
	case n == 0:
		fmt.Println("No results found")
	default:
		fmt.Printf("\n%d %s\n", n, plural(n, "result", "results"))
	}
	return nil
}

type jsonResult struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Host      string `json:"host"`
	Pathname  string `json:"pathname"`
	Title     string `json:"title"`
	Timestamp string `json:"timestamp"`
}

type jsonSearchOutput struct {
	Count   int          `json:"count"`
	Query   string       `json:"query"`
	Results []jsonResult `json:"results"`
}

func (c *SearchCommand) printJSON(query string, stream *history.Stream) error {
	recs, err := stream.Collect()
	if err != nil {
		return errors.Wrap(err, "search failed")
	}

	out := jsonSearchOutput{
		Count:   len(recs),
		Query:   query,
		Results: make([]jsonResult, len(recs)),
	}
	for i, r := range recs {
		out.Results[i] = jsonResult{
			ID:        r.ID,
			URL:       r.URL,
			Host:      r.Host,
			Pathname:  r.Pathname,
			Title:     r.Title,
			Timestamp: r.Timestamp.UTC().Format(time.RFC3339Nano),
		}
	}
	return printJSON(out)
}
