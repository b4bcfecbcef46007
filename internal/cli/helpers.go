package cli

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/runnerr0/backtrail/internal/config"
	"github.com/runnerr0/backtrail/internal/history"
	"github.com/runnerr0/backtrail/internal/logging"
	"github.com/runnerr0/backtrail/internal/storage"
)

// session bundles everything a subcommand needs: config, store, engine.
type session struct {
	cfg    *config.Config
	store  *storage.SQLiteStore
	engine *history.Engine
	log    zerolog.Logger

	db        *sql.DB
	logCloser io.Closer
}

func newSession(cfg *config.Config, store *storage.SQLiteStore, log zerolog.Logger) *session {
	engine := history.NewEngine(store,
		history.WithLogger(log),
		history.WithMaxResults(cfg.Search.MaxResults),
		history.WithMaxQueryLength(cfg.Search.MaxQueryLength),
	)
	return &session{cfg: cfg, store: store, engine: engine, log: log}
}

// openSession loads config, sets up logging, and opens the database.
func openSession(g *GlobalFlags) (*session, error) {
	var cfg *config.Config
	var err error
	if g.Config != "" {
		cfg, err = config.Load(g.Config)
	} else {
		cfg, err = config.LoadOrCreate()
	}
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}

	dbPath := g.DB
	if dbPath == "" {
		if dbPath, err = cfg.DatabasePath(); err != nil {
			return nil, err
		}
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, errors.Wrap(err, "create database directory")
		}
	}

	logPath, err := cfg.LogPath()
	if err != nil {
		return nil, err
	}
	var console io.Writer
	if g.Verbose {
		console = os.Stderr
	}
	log, logCloser, err := logging.New(logging.Config{
		Level:      cfg.Logging.Level,
		File:       logPath,
		MaxSizeMB:  cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		Console:    console,
	})
	if err != nil {
		return nil, err
	}

	store, db, err := storage.Open(dbPath, storage.Options{
		JournalMode: cfg.Storage.SQLiteJournalMode,
		Logger:      log,
	})
	if err != nil {
		logCloser.Close()
		return nil, err
	}

	s := newSession(cfg, store, log)
	s.db, s.logCloser = db, logCloser
	return s, nil
}

func (s *session) Close() {
	s.store.Close()
	if s.db != nil {
		s.db.Close()
	}
	if s.logCloser != nil {
		s.logCloser.Close()
	}
}

// withSession runs fn against the injected session, or opens and closes
// the default one.
func withSession(g *GlobalFlags, injected *session, fn func(*session) error) error {
	if injected != nil {
		return fn(injected)
	}
	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// parseDuration parses a human-friendly duration string like "30d", "7d", "24h", "2w".
func parseDuration(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, errors.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return 0, errors.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	default:
		return 0, errors.Errorf("invalid duration: %q (use d, h, w, or m suffix)", s)
	}
}

// formatDurationHuman formats a duration into a human-readable string like "30 days".
func formatDurationHuman(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	hours := int(d.Hours())
	if hours > 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}

// confirm prints prompt and reads a yes/no answer; anything but y/yes is no.
func confirm(in io.Reader, prompt string) bool {
	if in == nil {
		in = os.Stdin
	}
	fmt.Printf("%s [y/N]: ", prompt)
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		fmt.Println()
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
