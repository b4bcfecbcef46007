package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/runnerr0/backtrail/internal/history"
)

// Execute implements the go-flags Commander interface for PruneCommand.
func (c *PruneCommand) Execute(args []string) error {
	return withSession(c.globals, c.sess, func(s *session) error {
		return c.run(context.Background(), s)
	})
}

func (c *PruneCommand) run(ctx context.Context, s *session) error {
	retention := time.Duration(s.cfg.Retention.Days) * 24 * time.Hour
	if c.OlderThan != "" {
		dur, err := parseDuration(c.OlderThan)
		if err != nil {
			return errors.Wrapf(err, "invalid --older-than value %q", c.OlderThan)
		}
		retention = dur
	}
	if retention <= 0 {
		return errors.Errorf("retention must be positive, got %s", retention)
	}

	cutoff := time.Now().Add(-retention)
	window := history.Window{Until: cutoff}
	human := formatDurationHuman(retention)

	count, err := s.engine.CountWindow(ctx, window)
	if err != nil {
		return errors.Wrap(err, "count visits")
	}

	if c.DryRun {
		if c.jsonOutput() {
			return printJSON(map[string]any{"pruned": count, "dry_run": true, "older_than": human})
		}
		fmt.Printf("[DRY RUN] Would prune %d %s older than %s.\n", count, plural(count, "visit", "visits"), human)
		return nil
	}

	if count == 0 {
		if c.jsonOutput() {
			return printJSON(map[string]any{"pruned": 0, "dry_run": false, "older_than": human})
		}
		fmt.Printf("No visits to prune (none older than %s).\n", human)
		return nil
	}

	if !c.Force && !c.jsonOutput() {
		if !confirm(c.stdin, fmt.Sprintf("Prune %d %s older than %s. Proceed?", count, plural(count, "visit", "visits"), human)) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	pruned, err := s.engine.DeleteWindow(ctx, window)
	if err != nil {
		return errors.Wrapf(err, "prune failed after %d deletions", pruned)
	}

	if c.jsonOutput() {
		return printJSON(map[string]any{"pruned": pruned, "dry_run": false, "older_than": human})
	}
	fmt.Printf("Pruned %d %s older than %s.\n", pruned, plural(pruned, "visit", "visits"), human)
	return nil
}

func (c *PruneCommand) jsonOutput() bool {
	return c.globals != nil && c.globals.JSON
}
