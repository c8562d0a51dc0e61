// Package config provides the configuration loader for mealbook.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/mealbook/internal/core/domain"
	"go.trai.ch/mealbook/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// SupportedVersion is the config file version this loader understands.
const SupportedVersion = "1"

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the configuration file at path and merges it over the defaults.
// A missing file yields the defaults. A relative data_dir is resolved against
// the directory of the config file.
func (l *Loader) Load(path string) (domain.Settings, error) {
	settings := domain.DefaultSettings()

	var file Configfile
	found, err := readAndUnmarshalYAML(path, &file)
	if err != nil {
		return domain.Settings{}, zerr.With(err, "path", path)
	}
	if !found {
		settings.DataDir = resolveDataDir(path, settings.DataDir)
		return settings, nil
	}

	if file.Version != "" && file.Version != SupportedVersion {
		l.Logger.Warn(fmt.Sprintf("unsupported config version %q in %s, reading as version %s",
			file.Version, path, SupportedVersion))
	}

	if file.DataDir != "" {
		settings.DataDir = file.DataDir
	}
	settings.DataDir = resolveDataDir(path, settings.DataDir)

	if file.Backend != "" {
		backend, err := ParseBackend(file.Backend)
		if err != nil {
			return domain.Settings{}, zerr.With(err, "path", path)
		}
		settings.Backend = backend
	}

	if key := strings.TrimSpace(file.StorageKey); key != "" {
		settings.StorageKey = key
	}

	if file.WriteTimeout != "" {
		d, err := time.ParseDuration(file.WriteTimeout)
		if err != nil {
			err = zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
			return domain.Settings{}, zerr.With(zerr.With(err, "field", "write_timeout"), "path", path)
		}
		settings.WriteTimeout = d
	}

	if file.LogFormat != "" {
		if err := ValidateLogFormat(file.LogFormat); err != nil {
			return domain.Settings{}, zerr.With(err, "path", path)
		}
		settings.LogFormat = file.LogFormat
	}

	return settings, nil
}

// ParseBackend converts a backend name into a domain.Backend.
func ParseBackend(name string) (domain.Backend, error) {
	switch b := domain.Backend(strings.ToLower(strings.TrimSpace(name))); b {
	case domain.BackendFile, domain.BackendSQLite, domain.BackendMemory:
		return b, nil
	default:
		return "", zerr.With(domain.ErrUnknownBackend, "backend", name)
	}
}

// ValidateLogFormat checks that format names a supported log format.
func ValidateLogFormat(format string) error {
	if format != domain.LogFormatPretty && format != domain.LogFormatJSON {
		return zerr.With(domain.ErrInvalidLogFormat, "log_format", format)
	}
	return nil
}

func resolveDataDir(configPath, dataDir string) string {
	if filepath.IsAbs(dataDir) {
		return dataDir
	}
	return filepath.Join(filepath.Dir(configPath), dataDir)
}

func readAndUnmarshalYAML[T any](configPath string, target *T) (bool, error) {
	// #nosec G304 -- configPath is supplied by the user on purpose
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return false, zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return true, nil
}
