package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			MaxResults:     256,
			MaxQueryLength: 256,
		},
		Retention: RetentionConfig{
			Days: 90,
		},
		Storage: StorageConfig{
			Path:              "~/.config/backtrail",
			SQLiteFile:        "history.db",
			SQLiteJournalMode: "wal",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "backtrail.log",
			MaxSize:    10,
			MaxBackups: 3,
		},
	}
}
