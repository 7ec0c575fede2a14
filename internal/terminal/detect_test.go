package terminal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsInteractive(t *testing.T) {
	// Test runners rarely have a TTY; only make sure the call is safe.
	_ = IsInteractive()
}

func TestIsTerminalNil(t *testing.T) {
	if IsTerminal(nil) {
		t.Error("IsTerminal(nil) = true, want false")
	}
}

func TestIsTerminalRegularFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if IsTerminal(f) {
		t.Error("IsTerminal(regular file) = true, want false")
	}
}
