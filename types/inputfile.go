package types

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
)

// Charset is the only charset input files are read with.
const Charset = "UTF-8"

// InputFile is a read-only view over a file to analyze.
type InputFile interface {
	// Path returns the absolute path of the file.
	Path() string
	// RelativePath returns the path relative to the analysis base directory.
	RelativePath() string
	Charset() string
	IsTest() bool
	Open() (io.ReadCloser, error)
	Contents() (string, error)
	URI() *url.URL
}

// DefaultInputFile is an InputFile backed by a file below dir.
type DefaultInputFile struct {
	dir  string
	path string
}

// NewDefaultInputFile returns an input file for path, relative to dir.
func NewDefaultInputFile(dir, path string) *DefaultInputFile {
	return &DefaultInputFile{dir: dir, path: path}
}

func (f *DefaultInputFile) Path() string {
	abs, err := filepath.Abs(filepath.Join(f.dir, filepath.FromSlash(f.path)))
	if err != nil {
		return filepath.Join(f.dir, filepath.FromSlash(f.path))
	}
	return abs
}

func (f *DefaultInputFile) RelativePath() string {
	return f.path
}

func (*DefaultInputFile) Charset() string {
	return Charset
}

func (*DefaultInputFile) IsTest() bool {
	return false
}

func (f *DefaultInputFile) Open() (io.ReadCloser, error) {
	return os.Open(f.Path())
}

func (f *DefaultInputFile) Contents() (string, error) {
	content, err := os.ReadFile(f.Path())
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func (f *DefaultInputFile) URI() *url.URL {
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(f.Path())}
}
