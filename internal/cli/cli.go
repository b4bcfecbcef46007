package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Search *SearchCommand
	Add    *AddCommand
	Delete *DeleteCommand
	Forget *ForgetCommand
	Prune  *PruneCommand
	Purge  *PurgeCommand
	Dedupe *DedupeCommand
	Status *StatusCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "backtrail"
	parser.LongDescription = "Incremental search and pruning for a local log of visited pages."

	cmds := &commands{
		Search: &SearchCommand{globals: &globals, version: version},
		Add:    &AddCommand{globals: &globals, version: version},
		Delete: &DeleteCommand{globals: &globals, version: version},
		Forget: &ForgetCommand{globals: &globals, version: version},
		Prune:  &PruneCommand{globals: &globals, version: version},
		Purge:  &PurgeCommand{globals: &globals, version: version},
		Dedupe: &DedupeCommand{globals: &globals, version: version},
		Status: &StatusCommand{globals: &globals, version: version},
	}

	parser.AddCommand("search", "Search visited pages", "Search visited pages, most recent first. Query tokens must appear in order, case-insensitively.", cmds.Search)
	parser.AddCommand("add", "Record a visit", "Record a visit to a URL.", cmds.Add)
	parser.AddCommand("delete", "Delete one visit", "Delete a single visit by ID. Deleting an unknown ID is not an error.", cmds.Delete)
	parser.AddCommand("forget", "Delete recent visits", "Delete every visit from --since until now.", cmds.Forget)
	parser.AddCommand("prune", "Apply retention pruning", "Delete visits older than the retention period.", cmds.Prune)
	parser.AddCommand("purge", "Delete ALL visits", "Delete ALL visits. Destructive operation with safety prompt.", cmds.Purge)
	parser.AddCommand("dedupe", "Keep only the latest visit per URL", "Delete every visit that has a more recent visit to the same URL.", cmds.Dedupe)
	parser.AddCommand("status", "Show visit log statistics", "Show visit counts, time range, and top hosts.", cmds.Status)

	return parser, &globals, cmds
}

// Run is the main entry point for the CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// --version is valid without a subcommand, which go-flags would reject.
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("backtrail %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
