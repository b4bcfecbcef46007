package cli

import "io"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	DB      string `long:"db" description:"Path to the history database (overrides config)"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Log to stderr as well as the log file"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// SearchCommand streams visits matching a query, most recent first.
type SearchCommand struct {
	Since string `long:"since" description:"Only visits newer than duration (e.g., 24h, 7d, 30d); empty means all time"`
	Limit int    `long:"limit" description:"Maximum results (0 uses the configured default)" default:"0"`

	globals *GlobalFlags
	version string
	sess    *session // injectable for testing; nil means open the default session
}

// AddCommand records a visit.
type AddCommand struct {
	URL   string `long:"url" description:"URL visited (required)"`
	Title string `long:"title" description:"Page title"`
	At    string `long:"at" description:"Visit time as RFC3339 (default: now)"`

	globals *GlobalFlags
	version string
	sess    *session
}

// DeleteCommand deletes one visit by ID.
type DeleteCommand struct {
	ID string `long:"id" description:"Visit ID (required)"`

	globals *GlobalFlags
	version string
	sess    *session
}

// ForgetCommand deletes every visit in a recent window.
type ForgetCommand struct {
	Since   string `long:"since" description:"Delete visits newer than duration (e.g., 24h, 7d, 30d)"`
	AllTime bool   `long:"all-time" description:"Delete every visit up to now"`
	Force   bool   `long:"force" description:"Skip confirmation prompt"`

	globals *GlobalFlags
	version string
	sess    *session
	stdin   io.Reader
}

// PruneCommand applies retention pruning to remove old visits.
type PruneCommand struct {
	OlderThan string `long:"older-than" description:"Override retention period (e.g., 30d)"`
	DryRun    bool   `long:"dry-run" description:"Show what would be pruned without deleting"`
	Force     bool   `long:"force" description:"Skip confirmation prompt"`

	globals *GlobalFlags
	version string
	sess    *session
	stdin   io.Reader
}

// PurgeCommand deletes ALL visits with safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	sess    *session
	stdin   io.Reader
}

// DedupeCommand keeps only the most recent visit per URL.
type DedupeCommand struct {
	globals *GlobalFlags
	version string
	sess    *session
}

// StatusCommand shows visit log statistics.
type StatusCommand struct {
	globals *GlobalFlags
	version string
	sess    *session
}
