package adapter

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	m "auxmark.dev/pkg/auxmark/internal/model"
)

func TestLocalSourceFSAdapter_ReadLines(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()

	path := filepath.Join(t.TempDir(), "post.md")
	writeTestFile(t, path, "title\r\nbody\nlast")

	got, err := adapter.ReadLines(m.Path(path))
	if err != nil {
		t.Fatalf("ReadLines() error = %v", err)
	}

	want := []m.Line{
		{Text: "title", Terminator: "\r\n"},
		{Text: "body", Terminator: "\n"},
		{Text: "last"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ReadLines() = %#v, want %#v", got, want)
	}

	if _, err := adapter.ReadLines(m.Path(filepath.Join(t.TempDir(), "missing.md"))); err == nil {
		t.Fatalf("ReadLines() expected error for missing file")
	}
}

func TestLocalSourceFSAdapter_WriteFileAtomic(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()

	t.Run("replaces content and keeps mode", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "post.md")
		writeTestFile(t, path, "old\n")

		if err := os.Chmod(path, 0o600); err != nil {
			t.Fatalf("chmod: %v", err)
		}

		if err := adapter.WriteFileAtomic(m.Path(path), []byte("new\n")); err != nil {
			t.Fatalf("WriteFileAtomic() error = %v", err)
		}

		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read back: %v", err)
		}

		if string(got) != "new\n" {
			t.Fatalf("WriteFileAtomic() content = %q, want %q", got, "new\n")
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}

		if info.Mode().Perm() != 0o600 {
			t.Fatalf("WriteFileAtomic() mode = %v, want 0600", info.Mode().Perm())
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("read dir: %v", err)
		}

		for _, entry := range entries {
			if strings.Contains(entry.Name(), ".auxmark-") {
				t.Fatalf("WriteFileAtomic() left temp file %s behind", entry.Name())
			}
		}
	})

	t.Run("creates missing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fresh.json")

		if err := adapter.WriteFileAtomic(m.Path(path), []byte("{}")); err != nil {
			t.Fatalf("WriteFileAtomic() error = %v", err)
		}

		if got, _ := os.ReadFile(path); string(got) != "{}" {
			t.Fatalf("WriteFileAtomic() content = %q", got)
		}
	})

	t.Run("fails when directory is missing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nope", "post.md")

		if err := adapter.WriteFileAtomic(m.Path(path), []byte("x")); err == nil {
			t.Fatalf("WriteFileAtomic() expected error for missing directory")
		}
	})
}

func TestLocalSourceFSAdapter_HashFile(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()

	path := filepath.Join(t.TempDir(), "post.md")
	content := []byte("# Title\n\nbody\n")
	writeTestBytes(t, path, content)

	expected := fmt.Sprintf("%x", sha256.Sum256(content))

	hash, err := adapter.HashFile(m.Path(path))
	if err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}

	if hash != expected {
		t.Fatalf("HashFile() = %s, want %s", hash, expected)
	}
}

func TestLocalSourceFSAdapter_ExistsAndFileInfo(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()

	root := t.TempDir()
	path := filepath.Join(root, "post.md")
	writeTestFile(t, path, "x\n")

	if ok, err := adapter.Exists(m.Path(path)); err != nil || !ok {
		t.Fatalf("Exists(file) = %v, %v; want true, nil", ok, err)
	}

	if ok, err := adapter.Exists(m.Path(filepath.Join(root, "missing"))); err != nil || ok {
		t.Fatalf("Exists(missing) = %v, %v; want false, nil", ok, err)
	}

	info, err := adapter.FileInfo(m.Path(path))
	if err != nil {
		t.Fatalf("FileInfo() error = %v", err)
	}

	if info.IsDir() {
		t.Fatalf("FileInfo() reported file as directory")
	}

	dirInfo, err := adapter.FileInfo(m.Path(root))
	if err != nil {
		t.Fatalf("FileInfo() error = %v", err)
	}

	if !dirInfo.IsDir() {
		t.Fatalf("FileInfo() reported directory as file")
	}
}

func TestLocalSourceFSAdapter_MkdirAllAndRemove(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()

	dir := adapter.JoinPath(t.TempDir(), "post")

	if err := adapter.MkdirAll(dir); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	if fi, err := os.Stat(string(dir)); err != nil || !fi.IsDir() {
		t.Fatalf("MkdirAll() did not create directory, stat err=%v", err)
	}

	if err := adapter.Remove(dir); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if _, err := os.Stat(string(dir)); !os.IsNotExist(err) {
		t.Fatalf("Remove() did not remove directory, stat err=%v", err)
	}
}

func TestLocalSourceFSAdapter_JoinPath(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()

	got := adapter.JoinPath("content", "post", "index.md")
	if want := m.Path(filepath.Join("content", "post", "index.md")); got != want {
		t.Fatalf("JoinPath() = %s, want %s", got, want)
	}
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	writeTestBytes(t, path, []byte(content))
}

func writeTestBytes(t *testing.T, path string, content []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
