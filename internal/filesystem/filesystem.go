// Package filesystem is the file system view used when expanding input
// patterns, so pattern expansion can run against something other than the
// host disk.
package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Filesystem is the read-only subset of os used by glob expansion.
type Filesystem interface {
	Stat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	Abs(path string) (string, error)
}

// DefaultFS is the host file system.
type DefaultFS struct{}

func (DefaultFS) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }

func (DefaultFS) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }

func (DefaultFS) Abs(path string) (string, error) { return filepath.Abs(path) }
