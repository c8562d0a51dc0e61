package domain

import "path/filepath"

const (
	// DataDirName is the name of the default data directory.
	DataDirName = ".mealbook"

	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "mealbook.yaml"

	// SQLiteFileName is the database file used by the sqlite backend.
	SQLiteFileName = "mealbook.db"

	// DefaultStorageKey is the key holding the serialized meal collection.
	DefaultStorageKey = "meals"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultDataDir returns the default directory for persisted state.
func DefaultDataDir() string {
	return DataDirName
}

// DefaultSQLitePath returns the sqlite database path inside dataDir.
func DefaultSQLitePath(dataDir string) string {
	return filepath.Join(dataDir, SQLiteFileName)
}
