package terminal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LogOutput returns the log destination while the screen owns the tty: the
// file at path, appended to and created with its directory, or io.Discard
// when path is empty. The close function is never nil.
func LogOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return io.Discard, func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, f.Close, nil
}
