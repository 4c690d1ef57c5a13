package llm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Catalog errors.
var (
	ErrModelNotFound = errors.New("llm: model not found")
	ErrBadModelName  = errors.New("llm: invalid model name")
)

// modelExtension is the archive format local models ship in.
const modelExtension = ".gguf"

// Catalog enumerates local model archives in a directory. Only files
// directly in the directory with the model extension are listed.
type Catalog struct {
	dir string
}

// NewCatalog creates a catalog over dir. The directory may not exist
// yet; List then returns no models.
func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir}
}

// List returns the available model file names, sorted.
func (c *Catalog) List() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("llm: read models directory: %w", err)
	}

	var models []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), modelExtension) {
			models = append(models, e.Name())
		}
	}
	sort.Strings(models)
	return models, nil
}

// Resolve validates name and returns the full path of the model archive.
// Names containing path separators are rejected so callers cannot escape
// the models directory.
func (c *Catalog) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: %q", ErrBadModelName, name)
	}
	if !strings.EqualFold(filepath.Ext(name), modelExtension) {
		return "", fmt.Errorf("%w: %q (want %s)", ErrBadModelName, name, modelExtension)
	}

	path := filepath.Join(c.dir, name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %q", ErrModelNotFound, name)
		}
		return "", fmt.Errorf("llm: stat model: %w", err)
	}
	return path, nil
}
