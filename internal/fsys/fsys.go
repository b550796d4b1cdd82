// Package fsys wraps the filesystem primitives the sync engine is allowed to
// use. Production code runs against the real filesystem; tests run against an
// in-memory afero filesystem with identical semantics.
package fsys

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/afero"
)

// Permissions for content the engine writes.
const (
	// DirPerm is the permission for created directories (rwxr-x---).
	DirPerm = 0o750
	// FilePerm is the permission for written files (rw-r--r--).
	FilePerm = 0o644
)

// Service exposes the filesystem operations used by the sync engine.
type Service interface {
	Stat(path string) (os.FileInfo, error)
	ReadDir(path string) ([]os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	Remove(path string) error
	RemoveAll(path string) error
}

type aferoService struct {
	fs afero.Fs
}

// New returns a Service backed by the real filesystem.
func New() Service {
	return &aferoService{fs: afero.NewOsFs()}
}

// NewFromFs returns a Service backed by the given afero filesystem.
func NewFromFs(fs afero.Fs) Service {
	return &aferoService{fs: fs}
}

// NewMemory returns a Service backed by an in-memory filesystem.
// Intended for tests.
func NewMemory() Service {
	return &aferoService{fs: afero.NewMemMapFs()}
}

func (s *aferoService) Stat(path string) (os.FileInfo, error) {
	return s.fs.Stat(path)
}

func (s *aferoService) ReadDir(path string) ([]os.FileInfo, error) {
	infos, err := afero.ReadDir(s.fs, path)
	if err != nil {
		return nil, err
	}
	// afero.ReadDir sorts already, but the engine relies on stable order
	// for deterministic logs, so keep it explicit.
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })
	return infos, nil
}

func (s *aferoService) MkdirAll(path string, perm os.FileMode) error {
	return s.fs.MkdirAll(path, perm)
}

func (s *aferoService) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(s.fs, path)
}

func (s *aferoService) WriteFile(path string, data []byte, perm os.FileMode) error {
	return afero.WriteFile(s.fs, path, data, perm)
}

func (s *aferoService) Remove(path string) error {
	return s.fs.Remove(path)
}

func (s *aferoService) RemoveAll(path string) error {
	return s.fs.RemoveAll(path)
}

// Exists reports whether path exists on the service.
func Exists(svc Service, path string) bool {
	_, err := svc.Stat(path)
	return err == nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(svc Service, path string) bool {
	info, err := svc.Stat(path)
	return err == nil && info.IsDir()
}

// CopyFile copies a single file from src to dst through the service,
// preserving the source permission bits.
func CopyFile(svc Service, src, dst string) error {
	info, err := svc.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source %q: %w", src, err)
	}
	data, err := svc.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read source %q: %w", src, err)
	}
	if err := svc.WriteFile(dst, data, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write destination %q: %w", dst, err)
	}
	return nil
}
