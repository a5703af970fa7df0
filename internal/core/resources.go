package core

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dealscope/dealscope/pkg/models"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ErrResourceMissing indicates a catalog entry points at a file that does
// not exist on disk. The catalog is not pre-validated, so this surfaces
// only when a download is requested.
var ErrResourceMissing = errors.New("resource file missing")

// ResourceLibrary maps industries to recommended documents and resolves
// catalog entries to files on disk.
type ResourceLibrary interface {
	// Lookup returns the catalog entries for an industry in display order.
	// Unknown industries yield an empty list.
	Lookup(industry string) []models.Resource
	// Industries returns the industries present in the catalog.
	Industries() []string
	// Resolve returns the on-disk path for a catalog entry.
	Resolve(r models.Resource) string
	// Open opens a catalog entry's file for download. A missing file is
	// reported as ErrResourceMissing.
	Open(r models.Resource) (io.ReadCloser, error)
}

// catalogFile is the YAML shape of the resource catalog.
type catalogFile struct {
	Industries map[string][]models.Resource `yaml:"industries"`
}

// yamlResourceLibrary implements ResourceLibrary over a catalog loaded once
// at startup. The catalog is never mutated afterwards.
type yamlResourceLibrary struct {
	dir     string
	catalog map[string][]models.Resource
}

// NewResourceLibrary loads the industry catalog and returns a library
// resolving files against dir. When catalogPath is empty the embedded
// default catalog is used.
func NewResourceLibrary(dir string, catalogPath string) (ResourceLibrary, error) {
	data := defaultCatalog
	if catalogPath != "" {
		var err error
		data, err = os.ReadFile(catalogPath)
		if err != nil {
			return nil, fmt.Errorf("reading resource catalog %s: %w", catalogPath, err)
		}
	}

	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing resource catalog: %w", err)
	}

	return &yamlResourceLibrary{dir: dir, catalog: cf.Industries}, nil
}

// Lookup returns a copy of the entries so callers cannot mutate the catalog.
func (l *yamlResourceLibrary) Lookup(industry string) []models.Resource {
	entries, ok := l.catalog[industry]
	if !ok {
		return nil
	}
	out := make([]models.Resource, len(entries))
	copy(out, entries)
	return out
}

// Industries returns the catalog's industry names in unspecified order.
func (l *yamlResourceLibrary) Industries() []string {
	names := make([]string, 0, len(l.catalog))
	for name := range l.catalog {
		names = append(names, name)
	}
	return names
}

// Resolve returns the path of a catalog entry under the resources directory.
func (l *yamlResourceLibrary) Resolve(r models.Resource) string {
	return filepath.Join(l.dir, r.File)
}

// Open opens the entry's file. The catalog referencing a file that is not
// on disk is a configuration error, reported as ErrResourceMissing at the
// moment of use.
func (l *yamlResourceLibrary) Open(r models.Resource) (io.ReadCloser, error) {
	f, err := os.Open(l.Resolve(r))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrResourceMissing, l.Resolve(r))
		}
		return nil, fmt.Errorf("opening resource %s: %w", r.File, err)
	}
	return f, nil
}
