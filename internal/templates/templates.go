package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Template file names, shared by the embedded defaults and template directories.
const (
	FolderFile = "folder_template.html"
	FileFile   = "file_template.html"
	LayoutFile = "layout.html"
)

// Placeholder tokens substituted by the renderers.
const (
	PlaceholderURL      = "{{url}}"
	PlaceholderName     = "{{name}}"
	PlaceholderChildren = "{{children}}"
	PlaceholderTree     = "{{tree}}"
)

// ErrTemplateNotFound is returned when a required template file is missing.
var ErrTemplateNotFound = errors.New("template not found")

//go:embed default/*.html
var defaultFS embed.FS

// Set holds the three templates.
type Set struct {
	// Folder renders a directory. {{children}} receives the rendered children.
	Folder string

	// File renders a leaf.
	File string

	// Layout wraps the whole tree at {{tree}}. When empty the tree is
	// emitted without a layout.
	Layout string
}

// Source loads a template set. It is read once before a crawl begins.
type Source interface {
	Load() (Set, error)
}

// fsSource loads templates from a file system.
type fsSource struct {
	fsys fs.FS

	// layoutOptional lets a directory omit layout.html.
	layoutOptional bool
}

// Embedded returns the built-in templates.
func Embedded() Source {
	sub, err := fs.Sub(defaultFS, "default")
	if err != nil {
		panic(err) // the embed pattern guarantees the directory exists
	}
	return &fsSource{fsys: sub}
}

// Dir returns a Source reading the template files in dir.
// folder_template.html and file_template.html are required; a missing
// layout.html means no layout.
func Dir(dir string) Source {
	return &fsSource{fsys: os.DirFS(dir), layoutOptional: true}
}

// Load reads the templates.
func (s *fsSource) Load() (Set, error) {
	folder, err := s.read(FolderFile)
	if err != nil {
		return Set{}, err
	}

	file, err := s.read(FileFile)
	if err != nil {
		return Set{}, err
	}

	layout, err := s.read(LayoutFile)
	if err != nil {
		if !s.layoutOptional || !errors.Is(err, ErrTemplateNotFound) {
			return Set{}, err
		}
		layout = ""
	}

	return Set{Folder: folder, File: file, Layout: layout}, nil
}

func (s *fsSource) read(name string) (string, error) {
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
		}
		return "", fmt.Errorf("failed to read template %s: %w", name, err)
	}
	return string(data), nil
}

// Default returns the built-in template set.
func Default() Set {
	set, err := Embedded().Load()
	if err != nil {
		panic(err)
	}
	return set
}

// WriteDefaults copies the built-in templates into dir so they can be
// customized. Existing files are kept unless force is true.
func WriteDefaults(dir string, force bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create template directory: %w", err)
	}

	written := make([]string, 0, 3)
	for _, name := range []string{FolderFile, FileFile, LayoutFile} {
		dest := filepath.Join(dir, name)
		if !force {
			if _, err := os.Stat(dest); err == nil {
				return written, fmt.Errorf("template already exists: %s (use -f to overwrite)", dest)
			}
		}

		data, err := defaultFS.ReadFile("default/" + name)
		if err != nil {
			return written, fmt.Errorf("failed to read embedded template %s: %w", name, err)
		}
		if err := os.WriteFile(dest, data, 0600); err != nil {
			return written, fmt.Errorf("failed to write template %s: %w", dest, err)
		}
		written = append(written, dest)
	}
	return written, nil
}
