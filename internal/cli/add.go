package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/runnerr0/backtrail/internal/history"
)

// Execute implements the go-flags Commander interface for AddCommand.
func (c *AddCommand) Execute(args []string) error {
	if c.URL == "" {
		return errors.New("--url is required for add command")
	}
	return withSession(c.globals, c.sess, func(s *session) error {
		return c.run(context.Background(), s)
	})
}

func (c *AddCommand) run(ctx context.Context, s *session) error {
	rec := history.Record{URL: c.URL, Title: c.Title}
	if c.At != "" {
		at, err := time.Parse(time.RFC3339, c.At)
		if err != nil {
			return errors.Wrapf(err, "invalid --at value %q", c.At)
		}
		rec.Timestamp = at
	}

	if err := s.store.Add(ctx, &rec); err != nil {
		return errors.Wrap(err, "storing visit")
	}
	s.log.Debug().Str("id", rec.ID).Str("url", rec.URL).Msg("visit recorded")

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]any{
			"id":        rec.ID,
			"url":       rec.URL,
			"timestamp": rec.Timestamp.UTC().Format(time.RFC3339Nano),
		})
	}
	fmt.Printf("Recorded %s (%s)\n", rec.ID, rec.URL)
	return nil
}
