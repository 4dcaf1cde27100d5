package collector

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
)

// DirEntry is the part of a directory entry the collector looks at.
type DirEntry interface {
	Name() string
	IsDir() bool
}

var _ DirEntry = &godirwalk.Dirent{}

// Reader reads raw text files from a process-information tree. It
// splits content into lines or fields and attaches no other meaning.
type Reader struct {
	root string
}

func NewReader(root string) Reader {
	if root == "" {
		root = DefaultProcRoot
	}
	return Reader{root: root}
}

// Path resolves name under the reader's root unless it is absolute.
func (r Reader) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(r.root, name)
}

func (r Reader) Open(name string) (*os.File, error) {
	return os.Open(r.Path(name))
}

// Lines returns every line of the file.
func (r Reader) Lines(name string) ([]string, error) {
	f, err := r.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return linesFrom(f)
}

// Line returns the first line of the file.
func (r Reader) Line(name string) (string, error) {
	f, err := r.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return firstLineFrom(f)
}

// Fields returns the whitespace-separated tokens of the first line.
func (r Reader) Fields(name string) ([]string, error) {
	line, err := r.Line(name)
	if err != nil {
		return nil, err
	}
	return strings.Fields(line), nil
}

// ReadAll returns the raw file content. Used for files whose content is
// not newline-structured, such as cmdline.
func (r Reader) ReadAll(name string) ([]byte, error) {
	return os.ReadFile(r.Path(name))
}

// Dir lists the entries of a directory under the root, unsorted.
func (r Reader) Dir(name string) ([]DirEntry, error) {
	dirents, err := godirwalk.ReadDirents(r.Path(name), nil)
	if err != nil {
		return nil, err
	}

	entries := make([]DirEntry, len(dirents))
	for i, de := range dirents {
		entries[i] = de
	}
	return entries, nil
}

// readFrom opens name and hands it to parse.
func readFrom[T any](r Reader, name string, parse func(io.Reader) (T, error)) (T, error) {
	f, err := r.Open(name)
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()

	v, err := parse(f)
	if err != nil {
		return v, fmt.Errorf("%s: %w", r.Path(name), err)
	}
	return v, nil
}

func linesFrom(r io.Reader) ([]string, error) {
	var lines []string
	scanner := newLongLineScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

func firstLineFrom(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", ErrEmpty
}

// maxLineSize bounds a single line. The intr row of /proc/stat carries
// one counter per interrupt and outgrows bufio's 64 KiB default on large
// hosts.
const maxLineSize = 16 << 20

func newLongLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return scanner
}
