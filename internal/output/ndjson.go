package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"dictbatch/internal/dict"
)

// NDJSONWriter appends one compact JSON object per line. Each line is
// written whole with O_APPEND, so a crash can at worst lose the final
// line; earlier records stay parseable. Use SynthesizeArray to produce
// the bracketed-array form afterwards.
type NDJSONWriter struct {
	mu       sync.Mutex
	path     string
	count    int
	attached bool
	logger   *zap.Logger
}

// NewNDJSONWriter builds a writer for path. Init must be called before
// the first Append.
func NewNDJSONWriter(path string, logger *zap.Logger) *NDJSONWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NDJSONWriter{path: path, logger: logger}
}

// OpenNDJSONWriter attaches to an existing NDJSON file, recovering the
// line count. Used by resumed runs: the returned writer's Init keeps
// the recovered lines instead of truncating.
func OpenNDJSONWriter(path string, logger *zap.Logger) (*NDJSONWriter, error) {
	w := NewNDJSONWriter(path, logger)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ndjson file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			return nil, fmt.Errorf("existing file %s has an invalid line", path)
		}
		w.count++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan ndjson file: %w", err)
	}
	w.attached = true
	return w, nil
}

// Init truncates the file to empty, except for writers attached to an
// existing file via OpenNDJSONWriter, which keep what they recovered.
func (w *NDJSONWriter) Init() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.attached {
		return nil
	}
	if err := os.WriteFile(w.path, nil, 0o644); err != nil {
		return fmt.Errorf("initialize ndjson file: %w", err)
	}
	w.count = 0
	return nil
}

// Append writes one {word: entry-or-null} line.
func (w *NDJSONWriter) Append(word string, entry *dict.Entry) error {
	payload, err := marshalElement(word, entry, "")
	if err != nil {
		return fmt.Errorf("marshal entry for %q: %w", word, err)
	}
	payload = append(payload, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open ndjson file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(payload); err != nil {
		return fmt.Errorf("append line for %q: %w", word, err)
	}
	w.count++
	return nil
}

// Count returns the number of lines appended so far.
func (w *NDJSONWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close implements dict.ResultSink; the writer holds no open handles.
func (w *NDJSONWriter) Close() error {
	return nil
}

// SynthesizeArray converts an NDJSON file into a bracketed JSON array
// file, validating each line on the way.
func SynthesizeArray(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open ndjson source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create array file: %w", err)
	}
	defer out.Close()

	bw := bufio.NewWriter(out)
	if _, err := bw.WriteString("["); err != nil {
		return fmt.Errorf("write array open: %w", err)
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	first := true
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			return fmt.Errorf("invalid ndjson line in %s", src)
		}
		if !first {
			if _, err := bw.WriteString(",\n"); err != nil {
				return fmt.Errorf("write separator: %w", err)
			}
		}
		first = false
		if _, err := bw.Write(line); err != nil {
			return fmt.Errorf("write element: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan ndjson source: %w", err)
	}

	if _, err := bw.WriteString("]"); err != nil {
		return fmt.Errorf("write array close: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush array file: %w", err)
	}
	return nil
}
