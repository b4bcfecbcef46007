package cli

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Execute implements the go-flags Commander interface for DedupeCommand.
func (c *DedupeCommand) Execute(args []string) error {
	return withSession(c.globals, c.sess, func(s *session) error {
		n, err := s.engine.Dedupe(context.Background())
		if err != nil {
			return errors.Wrapf(err, "dedupe failed after %d deletions", n)
		}
		if c.globals != nil && c.globals.JSON {
			return printJSON(map[string]any{"deleted": n})
		}
		fmt.Printf("Removed %d older %s.\n", n, plural(n, "visit", "visits"))
		return nil
	})
}
