// Package kv implements the key-value stores the meal repository persists to.
package kv

import (
	"path/filepath"
	"strings"

	"go.trai.ch/mealbook/internal/core/domain"
	"go.trai.ch/zerr"
)

// validateKey rejects keys that cannot be used as a single file name.
func validateKey(key string) error {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || filepath.Base(key) != key {
		return zerr.With(domain.ErrInvalidKey, "key", key)
	}
	return nil
}
