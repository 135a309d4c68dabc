// Package output delivers the buffer outside the app: a text file export
// and the system clipboard.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ExportFileName is the name of every exported artifact.
const ExportFileName = "text.txt"

// Export writes text to dir/text.txt, replacing any previous export, and
// returns the written path.
func Export(dir, text string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, ExportFileName)

	tmp, err := os.CreateTemp(dir, ".text-*.txt")
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	if _, err := WriteText(tmp, text); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close export: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("finalize export: %w", err)
	}
	return path, nil
}

// WriteText writes the exact UTF-8 bytes of text to w.
func WriteText(w io.Writer, text string) (int, error) {
	return io.WriteString(w, text)
}
