package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Execute implements the go-flags Commander interface for ForgetCommand.
func (c *ForgetCommand) Execute(args []string) error {
	if c.Since == "" && !c.AllTime {
		return errors.New("forget requires --since or --all-time")
	}
	if c.Since != "" && c.AllTime {
		return errors.New("--since and --all-time are mutually exclusive")
	}

	var since time.Time
	label := "all time"
	if c.Since != "" {
		dur, err := parseDuration(c.Since)
		if err != nil {
			return errors.Wrapf(err, "invalid --since value %q", c.Since)
		}
		since = time.Now().Add(-dur)
		label = "the last " + formatDurationHuman(dur)
	}

	if !c.Force && !confirm(c.stdin, fmt.Sprintf("Delete every visit from %s?", label)) {
		fmt.Println("Aborted.")
		return nil
	}

	return withSession(c.globals, c.sess, func(s *session) error {
		n, err := s.engine.DeleteRange(context.Background(), since)
		if err != nil {
			return errors.Wrapf(err, "forget failed after %d deletions", n)
		}

		if c.globals != nil && c.globals.JSON {
			out := map[string]any{"deleted": n, "all_time": c.AllTime}
			if !since.IsZero() {
				out["since"] = since.UTC().Format(time.RFC3339)
			}
			return printJSON(out)
		}
		fmt.Printf("Deleted %d %s from %s.\n", n, plural(n, "visit", "visits"), label)
		return nil
	})
}
