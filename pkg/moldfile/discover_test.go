// SPDX-License-Identifier: MPL-2.0

package moldfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("version: '0.6'\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscover_WalksUp(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	touch(t, filepath.Join(root, "mold.yml"))
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := Discover(nested, "")
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if want := filepath.Join(root, "mold.yml"); got != want {
		t.Errorf("Discover() = %q, want %q", got, want)
	}
}

func TestDiscover_PrefersEarlierDefaults(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	touch(t, filepath.Join(root, "mold.yaml"))
	touch(t, filepath.Join(root, "mold.cue"))

	got, err := Discover(root, "")
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if filepath.Base(got) != "mold.cue" {
		t.Errorf("Discover() = %q, want mold.cue", got)
	}
}

func TestDiscover_NamedFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	touch(t, filepath.Join(root, "mold.yaml"))
	touch(t, filepath.Join(root, "tasks.yaml"))

	got, err := Discover(root, "tasks.yaml")
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if filepath.Base(got) != "tasks.yaml" {
		t.Errorf("Discover() = %q, want tasks.yaml", got)
	}
}

func TestDiscoverIn(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	touch(t, filepath.Join(root, "Moldfile"))
	touch(t, filepath.Join(root, "sub", "x.yaml"))

	if got, err := DiscoverIn(root, ""); err != nil || filepath.Base(got) != "Moldfile" {
		t.Errorf("DiscoverIn(default) = %q, %v", got, err)
	}
	if got, err := DiscoverIn(root, "sub/x.yaml"); err != nil || got != filepath.Join(root, "sub", "x.yaml") {
		t.Errorf("DiscoverIn(file) = %q, %v", got, err)
	}

	_, err := DiscoverIn(root, "missing.yaml")
	var nf *NotFoundError
	if !errors.As(err, &nf) || !errors.Is(err, ErrMoldfileNotFound) {
		t.Fatalf("expected *NotFoundError, got %v", err)
	}
}

func TestDiscoverIn_EmptyDir(t *testing.T) {
	t.Parallel()

	if _, err := DiscoverIn(t.TempDir(), ""); !errors.Is(err, ErrMoldfileNotFound) {
		t.Fatalf("expected ErrMoldfileNotFound, got %v", err)
	}
}
