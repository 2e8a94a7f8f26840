// Package testutil provides small helpers shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Sandbox is an isolated temporary directory for a single test, removed
// automatically when the test finishes.
type Sandbox struct {
	Root string
}

// NewSandbox creates a Sandbox rooted at a fresh temporary directory tied
// to t's lifetime.
func NewSandbox(t *testing.T) *Sandbox {
	t.Helper()
	return &Sandbox{Root: t.TempDir()}
}

// Path returns the absolute path for name within the sandbox.
func (s *Sandbox) Path(name string) string {
	return filepath.Join(s.Root, name)
}

// WriteFile writes data to the named file inside the sandbox.
func (s *Sandbox) WriteFile(t *testing.T, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(s.Path(name), data, 0o644); err != nil {
		t.Fatalf("testutil: write %s: %v", name, err)
	}
}

// ReadFile reads and returns data from the named file inside the sandbox.
func (s *Sandbox) ReadFile(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(s.Path(name))
	if err != nil {
		t.Fatalf("testutil: read %s: %v", name, err)
	}
	return b
}
