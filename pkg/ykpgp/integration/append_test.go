package integration

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAppendLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sshcontrol")

	added, err := AppendLine(path, "GRIP1", 0o600)
	if err != nil || !added {
		t.Fatalf("first append = %v, %v", added, err)
	}
	added, err = AppendLine(path, "GRIP1", 0o600)
	if err != nil || added {
		t.Fatalf("duplicate append = %v, %v", added, err)
	}
	if _, err := AppendLine(path, "GRIP2", 0o600); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "GRIP1\nGRIP2\n" {
		t.Errorf("content = %q", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %o, want 600", info.Mode().Perm())
	}
}

func TestAppendLineMissingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".profile")
	if err := os.WriteFile(path, []byte("# comment\n  export X=1"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := AppendLine(path, "export Y=2", 0o644); err != nil {
		t.Fatal(err)
	}
	// Indented existing lines still count as present.
	if added, _ := AppendLine(path, "export X=1", 0o644); added {
		t.Error("existing line appended again")
	}

	data, _ := os.ReadFile(path)
	if string(data) != "# comment\n  export X=1\nexport Y=2\n" {
		t.Errorf("content = %q", data)
	}
}

func TestAppendKeygrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sshcontrol")
	existing := "# List of allowed ssh keys.\nABCDEF0123 0\n"
	if err := os.WriteFile(path, []byte(existing), 0o600); err != nil {
		t.Fatal(err)
	}

	// gpg-agent writes entries with a TTL field; the grip alone matches.
	if added, err := AppendKeygrip(path, "ABCDEF0123"); err != nil || added {
		t.Fatalf("AppendKeygrip(existing) = %v, %v", added, err)
	}
	if added, err := AppendKeygrip(path, "9876543210"); err != nil || !added {
		t.Fatalf("AppendKeygrip(new) = %v, %v", added, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != existing+"9876543210\n" {
		t.Errorf("content = %q", data)
	}
}
