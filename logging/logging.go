// Package logging sets up the process-wide stdlib logger with a
// size-based rotating file writer, mirroring the teacher's ambient
// logging stack.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

const maxLogSize = 2 * 1024 * 1024 // 2MB

// RotatingWriter is an io.Writer that rotates the underlying file to a
// single ".1" backup once it exceeds maxLogSize.
type RotatingWriter struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	size    int64
	maxSize int64
}

// Setup opens logPath for append (truncating if it's already oversized),
// wires stdout+file into log.SetOutput, and returns the writer so callers
// can Close it on shutdown.
func Setup(logPath string) (*RotatingWriter, error) {
	rw := &RotatingWriter{path: logPath, maxSize: maxLogSize}

	if info, err := os.Stat(logPath); err == nil && info.Size() > maxLogSize {
		if err := os.Remove(logPath); err != nil {
			return nil, fmt.Errorf("remove oversized log: %w", err)
		}
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	if info, err := f.Stat(); err == nil {
		rw.size = info.Size()
	}
	rw.file = f

	log.SetOutput(io.MultiWriter(os.Stdout, rw))
	return rw, nil
}

func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	n, err := rw.file.Write(p)
	rw.size += int64(n)
	if rw.size > rw.maxSize {
		if rerr := rw.rotate(); rerr != nil {
			return n, rerr
		}
	}
	return n, err
}

func (rw *RotatingWriter) rotate() error {
	if err := rw.file.Close(); err != nil {
		return err
	}
	backup := rw.path + ".1"
	_ = os.Remove(backup)
	if err := os.Rename(rw.path, backup); err != nil {
		return err
	}
	f, err := os.OpenFile(rw.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	rw.file = f
	rw.size = 0
	return nil
}

// Close flushes and closes the underlying file.
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.file.Close()
}
