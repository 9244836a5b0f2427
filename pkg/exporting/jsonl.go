package exporting

import (
	"bufio"
	"encoding/json"
	"math"
	"os"
	"sync"

	"github.com/pkg/errors"
)

const DefaultBufferSize = 64 * 1024

func init() {
	Register(&JSONLFormat{})
}

// JSONLFormat handles JSON Lines format.
type JSONLFormat struct{}

func (f *JSONLFormat) Name() string         { return "jsonl" }
func (f *JSONLFormat) Extensions() []string { return []string{".jsonl", ".json"} }
func (f *JSONLFormat) Writer() Writer       { return &JSONLWriter{} }

// JSONLWriter writes one JSON object per line.
type JSONLWriter struct {
	path   string
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
}

func (w *JSONLWriter) Init(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create file")
	}
	w.path = path
	w.file = file
	w.writer = bufio.NewWriterSize(file, DefaultBufferSize)
	return nil
}

func (w *JSONLWriter) Write(record Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := json.Marshal(jsonSafe(record))
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}
	if _, err := w.writer.Write(data); err != nil {
		return errors.Wrap(err, "write record")
	}
	return w.writer.WriteByte('\n')
}

func (w *JSONLWriter) WriteBatch(records []Record) error {
	for i, r := range records {
		if err := w.Write(r); err != nil {
			return errors.Wrapf(err, "record %d", i)
		}
	}
	return nil
}

func (w *JSONLWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.writer != nil {
		return w.writer.Flush()
	}
	return nil
}

func (w *JSONLWriter) Close() error {
	err := w.Flush()
	if w.file != nil {
		if cerr := w.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (w *JSONLWriter) Path() string {
	return w.path
}

// jsonSafe replaces non-finite readings, which encoding/json rejects, with null.
func jsonSafe(record Record) Record {
	var out Record
	for k, v := range record {
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			if out == nil {
				out = make(Record, len(record))
				for k2, v2 := range record {
					out[k2] = v2
				}
			}
			out[k] = nil
		}
	}
	if out == nil {
		return record
	}
	return out
}
