package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Execute implements the go-flags Commander interface for PurgeCommand.
func (c *PurgeCommand) Execute(args []string) error {
	if !c.All {
		return errors.New("purge requires --all flag for safety")
	}

	if !c.Force {
		fmt.Println("\u26a0 WARNING: This will permanently delete ALL visit history.")
		fmt.Println("This action cannot be undone.")
		fmt.Println()
		fmt.Print(`Type "PURGE" to confirm: `)

		in := c.stdin
		if in == nil {
			in = os.Stdin
		}
		scanner := bufio.NewScanner(in)
		if !scanner.Scan() {
			return errors.New("aborted: no input received")
		}
		if strings.TrimSpace(scanner.Text()) != "PURGE" {
			return errors.New("aborted: confirmation text did not match")
		}
	}

	return withSession(c.globals, c.sess, func(s *session) error {
		if err := s.engine.DeleteAll(context.Background()); err != nil {
			return errors.Wrap(err, "purge failed")
		}

		if c.globals != nil && c.globals.JSON {
			return printJSON(map[string]any{"purged": true, "message": "all visits deleted"})
		}
		fmt.Println("Purged all visits. History is empty.")
		return nil
	})
}
