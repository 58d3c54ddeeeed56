package descriptor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Extensions a named descriptor file may carry, in lookup order.
var fileExtensions = []string{".yaml", ".yml", ".json"}

// ErrUnknownDescriptor is returned by LoadNamed when no file matches.
var ErrUnknownDescriptor = errors.New("unknown descriptor")

// LoadNamed loads the descriptor called name from dir, trying each known
// extension in turn. Names are plain file stems; path separators are
// rejected.
func LoadNamed(dir, name string) (Spec, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return Spec{}, &InvalidDescriptorError{Field: "name", Reason: fmt.Sprintf("invalid descriptor name %q", name)}
	}
	for _, ext := range fileExtensions {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return LoadFile(path)
	}
	return Spec{}, fmt.Errorf("%w: %s", ErrUnknownDescriptor, name)
}

// ListNamed returns the sorted names of the descriptor files in dir. A
// missing dir holds no descriptors.
func ListNamed(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list descriptors: %w", err)
	}
	names := []string{}
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || !slices.Contains(fileExtensions, ext) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ext)
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}
