// Package workspace manages per-request scratch directories and the response
// artifacts that outlive them.
package workspace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/xid"
)

// Workspace is a scratch directory bound to one request.
type Workspace struct {
	root string
	dir  string
}

// Acquire creates a fresh workspace below root. Callers must defer Release.
func Acquire(root string) (*Workspace, error) {
	if root == "" {
		root = os.TempDir()
	}
	dir, err := os.MkdirTemp(root, "convert-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{root: root, dir: dir}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string { return filepath.Join(w.dir, name) }

// Release removes the workspace and everything in it. It is safe to call more than once.
func (w *Workspace) Release() error {
	if w == nil || w.dir == "" {
		return nil
	}
	return os.RemoveAll(w.dir)
}

// Relocate copies src out of the workspace into the durable temp area so it
// survives Release. The artifact is named after name with a unique prefix.
func (w *Workspace) Relocate(src, name string) (*Artifact, error) {
	dst := filepath.Join(w.root, xid.New().String()+"-"+filepath.Base(name))

	in, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", dst, err)
	}
	size, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return nil, fmt.Errorf("copy %s: %w", src, err)
	}
	return &Artifact{Path: dst, Name: filepath.Base(name), Size: size}, nil
}

// Artifact is a file in the durable temp area waiting to be delivered.
type Artifact struct {
	Path string
	// Name is the file name presented to the client.
	Name string
	Size int64
}

// Open returns a reader over the artifact. Closing it removes the file.
func (a *Artifact) Open() (io.ReadCloser, error) {
	f, err := os.Open(a.Path)
	if err != nil {
		return nil, err
	}
	return &removingFile{File: f}, nil
}

// Remove deletes the artifact without delivering it.
func (a *Artifact) Remove() error {
	err := os.Remove(a.Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

type removingFile struct {
	*os.File
	once sync.Once
	err  error
}

func (f *removingFile) Close() error {
	f.once.Do(func() {
		f.err = f.File.Close()
		if err := os.Remove(f.File.Name()); err != nil && !os.IsNotExist(err) && f.err == nil {
			f.err = err
		}
	})
	return f.err
}
