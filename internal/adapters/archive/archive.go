// Package archive reads and writes meal collections as YAML documents.
package archive

import (
	"errors"
	"io"

	"go.trai.ch/mealbook/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Version is the archive format version written by Encode.
const Version = "1"

// Document is the on-disk shape of an archive.
type Document struct {
	Version string        `yaml:"version"`
	Meals   []domain.Meal `yaml:"meals"`
}

// Encode writes meals to w as a YAML archive.
func Encode(w io.Writer, meals []domain.Meal) error {
	doc := Document{Version: Version, Meals: meals}
	if doc.Meals == nil {
		doc.Meals = make([]domain.Meal, 0)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return zerr.Wrap(err, domain.ErrArchiveEncodeFailed.Error())
	}
	if err := enc.Close(); err != nil {
		return zerr.Wrap(err, domain.ErrArchiveEncodeFailed.Error())
	}
	return nil
}

// Decode reads a YAML archive from r.
// An empty input is an empty archive.
func Decode(r io.Reader) ([]domain.Meal, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return make([]domain.Meal, 0), nil
		}
		return nil, zerr.Wrap(err, domain.ErrArchiveDecodeFailed.Error())
	}
	if doc.Version != "" && doc.Version != Version {
		return nil, zerr.With(domain.ErrArchiveDecodeFailed, "version", doc.Version)
	}
	if doc.Meals == nil {
		doc.Meals = make([]domain.Meal, 0)
	}
	return doc.Meals, nil
}
