package domain

import "time"

// Backend names a Persistent Store Adapter implementation.
type Backend string

const (
	// BackendFile stores each key as a JSON file in the data directory.
	BackendFile Backend = "file"
	// BackendSQLite stores keys in a sqlite database in the data directory.
	BackendSQLite Backend = "sqlite"
	// BackendMemory keeps keys in process memory only.
	BackendMemory Backend = "memory"
)

// Log formats.
const (
	LogFormatPretty = "pretty"
	LogFormatJSON   = "json"
)

// DefaultWriteTimeout bounds a single background store write.
const DefaultWriteTimeout = 5 * time.Second

// Settings holds the resolved configuration of a meal book.
type Settings struct {
	DataDir      string
	Backend      Backend
	StorageKey   string
	WriteTimeout time.Duration
	LogFormat    string
}

// DefaultSettings returns the settings used when no config file is present.
func DefaultSettings() Settings {
	return Settings{
		DataDir:      DefaultDataDir(),
		Backend:      BackendFile,
		StorageKey:   DefaultStorageKey,
		WriteTimeout: DefaultWriteTimeout,
		LogFormat:    LogFormatPretty,
	}
}
