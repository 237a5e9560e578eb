package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
)

// FileID identifies a file within a FileSet. Zero is reserved.
type FileID uint32

// File holds one loaded fixture.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	Hash    [32]byte
}

// FileSet owns every file loaded during one compilation run.
type FileSet struct {
	files  []File
	byPath map[string]FileID
}

func NewFileSet() *FileSet {
	return &FileSet{
		files:  make([]File, 1, 8),
		byPath: make(map[string]FileID),
	}
}

// Add registers content under path. Re-adding a path replaces its content.
func (fs *FileSet) Add(path string, content []byte) FileID {
	path = filepath.ToSlash(path)
	if id, ok := fs.byPath[path]; ok {
		fs.files[id].Content = content
		fs.files[id].Hash = sha256.Sum256(content)
		return id
	}
	id := FileID(len(fs.files))
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    path,
		Content: content,
		Hash:    sha256.Sum256(content),
	})
	fs.byPath[path] = id
	return id
}

// Load reads path from disk and adds it.
func (fs *FileSet) Load(path string) (FileID, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	return fs.Add(path, content), nil
}

func (fs *FileSet) Get(id FileID) *File {
	if id == 0 || int(id) >= len(fs.files) {
		return nil
	}
	return &fs.files[id]
}

// Path returns the file path or "" for an unknown ID.
func (fs *FileSet) Path(id FileID) string {
	if f := fs.Get(id); f != nil {
		return f.Path
	}
	return ""
}

// Format renders a span as path:line:col.
func (fs *FileSet) Format(sp Span) string {
	if sp.IsZero() {
		return "<generated>"
	}
	path := fs.Path(sp.File)
	if path == "" {
		path = "?"
	}
	return fmt.Sprintf("%s:%d:%d", path, sp.Line, sp.Col)
}
