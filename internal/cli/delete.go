package cli

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Execute implements the go-flags Commander interface for DeleteCommand.
func (c *DeleteCommand) Execute(args []string) error {
	if c.ID == "" {
		return errors.New("--id is required for delete command")
	}
	return withSession(c.globals, c.sess, func(s *session) error {
		if err := s.engine.DeleteByID(context.Background(), c.ID); err != nil {
			return errors.Wrap(err, "delete failed")
		}
		if c.globals != nil && c.globals.JSON {
			return printJSON(map[string]any{"deleted": c.ID})
		}
		fmt.Printf("Deleted %s\n", c.ID)
		return nil
	})
}
