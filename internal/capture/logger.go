package capture

import (
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// Logger receives captured events.
type Logger interface {
	Log(event Event)
}

// FileLogger appends events to a file. It is safe for concurrent use.
type FileLogger struct {
	file *os.File
	enc  *cbor.Encoder
	mu   sync.Mutex

	closed bool
	err    error
}

// NewFileLogger opens path for appending, creating it if needed.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileLogger{
		file: f,
		enc:  newEncoder(f),
	}, nil
}

// Log writes an event. Write errors do not interrupt the caller; the first
// one is kept and reported by Err.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	if err := l.enc.Encode(event); err != nil && l.err == nil {
		l.err = err
	}
}

// Err returns the first write error, if any.
func (l *FileLogger) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Close closes the file. Later Log calls are ignored.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}

var _ Logger = (*FileLogger)(nil)
