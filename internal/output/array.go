// Package output persists per-word outcomes. The array writer keeps a
// JSON array file syntactically closed after every single append; the
// NDJSON writer trades that contract for torn-write safety.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"dictbatch/internal/dict"
)

const emptyArray = "[]"

// ArrayWriter appends entries to a JSON array file in place. Instead of
// rewriting the whole array per append, it rewinds over the closing
// bracket, writes the new element, and closes the array again, so the
// file parses as a valid JSON array after every call.
//
// The writer owns the file exclusively and serializes appends with its
// own mutex; element order is completion order. A torn write during an
// OS-level crash mid-append can still leave the file invalid — there is
// no repair path.
type ArrayWriter struct {
	mu       sync.Mutex
	path     string
	count    int
	attached bool
	logger   *zap.Logger
}

// NewArrayWriter builds a writer for path. Init must be called before
// the first Append.
func NewArrayWriter(path string, logger *zap.Logger) *ArrayWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArrayWriter{path: path, logger: logger}
}

// OpenArrayWriter attaches to an existing array file, recovering the
// element count by parsing it. Used by resumed runs: the returned
// writer's Init keeps the recovered contents instead of resetting, so
// appends extend the previous run's output.
func OpenArrayWriter(path string, logger *zap.Logger) (*ArrayWriter, error) {
	w := NewArrayWriter(path, logger)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read array file: %w", err)
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("existing file %s is not a JSON array: %w", path, err)
	}
	w.count = len(elements)
	w.attached = true
	return w, nil
}

// Init resets the file to an empty array. Re-running Init on a non-empty
// file is a destructive reset, except for writers attached to an
// existing file via OpenArrayWriter, which keep what they recovered.
func (w *ArrayWriter) Init() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.attached {
		return nil
	}
	if err := os.WriteFile(w.path, []byte(emptyArray), 0o644); err != nil {
		return fmt.Errorf("initialize array file: %w", err)
	}
	w.count = 0
	return nil
}

// Append adds one single-key object {word: entry-or-null} to the array.
// The file parses as a valid JSON array the moment Append returns.
func (w *ArrayWriter) Append(word string, entry *dict.Entry) error {
	payload, err := marshalElement(word, entry, "  ")
	if err != nil {
		return fmt.Errorf("marshal entry for %q: %w", word, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open array file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat array file: %w", err)
	}

	var (
		offset int64
		chunk  []byte
	)
	if w.count == 0 {
		// Overwrite the closing bracket of "[]" with the first element.
		offset = int64(len(emptyArray)) - 1
		chunk = append(payload, ']')
	} else {
		// Rewind over the trailing "]" and extend the array.
		offset = info.Size() - 1
		chunk = append([]byte(",\n"), payload...)
		chunk = append(chunk, ']')
	}

	if _, err := f.WriteAt(chunk, offset); err != nil {
		return fmt.Errorf("append element for %q: %w", word, err)
	}
	if err := f.Truncate(offset + int64(len(chunk))); err != nil {
		return fmt.Errorf("truncate array file: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of elements appended so far.
func (w *ArrayWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close implements dict.ResultSink; the writer holds no open handles.
func (w *ArrayWriter) Close() error {
	return nil
}

// marshalElement serializes {word: entry-or-null} without HTML escaping
// so CJK text stays readable in the output file.
func marshalElement(word string, entry *dict.Entry, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(map[string]*dict.Entry{word: entry}); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
