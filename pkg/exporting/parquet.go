package exporting

import (
	"fmt"
	"os"
	"sync"

	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
)

const ParquetBatchSize = 1000

func init() {
	Register(&ParquetFormat{})
}

// ParquetFormat handles Parquet files.
type ParquetFormat struct{}

func (f *ParquetFormat) Name() string         { return "parquet" }
func (f *ParquetFormat) Extensions() []string { return []string{".parquet"} }
func (f *ParquetFormat) Writer() Writer       { return &ParquetWriter{} }

// ParquetWriter writes Parquet files using the Row API. The schema is fixed
// by the first record; every column is optional.
type ParquetWriter struct {
	path    string
	file    *os.File
	writer  *parquet.Writer
	columns []string
	buffer  []parquet.Row
	mu      sync.Mutex
}

func (w *ParquetWriter) Init(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create file")
	}
	w.path = path
	w.file = file
	w.buffer = make([]parquet.Row, 0, ParquetBatchSize)
	return nil
}

func (w *ParquetWriter) initSchema(record Record) {
	// parquet.Group orders its fields by name, so column i is columns[i].
	w.columns = sortedKeys(record)
	group := make(parquet.Group, len(w.columns))
	for _, name := range w.columns {
		group[name] = parquetNode(record[name])
	}
	w.writer = parquet.NewWriter(w.file, parquet.NewSchema("sample", group),
		parquet.Compression(&parquet.Snappy),
	)
}

func parquetNode(val interface{}) parquet.Node {
	switch val.(type) {
	case int, int64:
		return parquet.Optional(parquet.Int(64))
	case float64:
		return parquet.Optional(parquet.Leaf(parquet.DoubleType))
	case bool:
		return parquet.Optional(parquet.Leaf(parquet.BooleanType))
	default:
		return parquet.Optional(parquet.String())
	}
}

func (w *ParquetWriter) recordToRow(record Record) parquet.Row {
	row := make(parquet.Row, len(w.columns))
	for i, name := range w.columns {
		val, ok := record[name]
		if !ok || val == nil {
			row[i] = parquet.NullValue().Level(0, 0, i)
			continue
		}
		row[i] = parquetValue(val).Level(0, 1, i)
	}
	return row
}

func parquetValue(val interface{}) parquet.Value {
	switch v := val.(type) {
	case bool:
		return parquet.BooleanValue(v)
	case int:
		return parquet.Int64Value(int64(v))
	case int64:
		return parquet.Int64Value(v)
	case float64:
		return parquet.DoubleValue(v)
	case string:
		return parquet.ByteArrayValue([]byte(v))
	default:
		return parquet.ByteArrayValue([]byte(fmt.Sprintf("%v", v)))
	}
}

func (w *ParquetWriter) Write(record Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.writer == nil {
		w.initSchema(record)
	}
	w.buffer = append(w.buffer, w.recordToRow(record))
	if len(w.buffer) >= ParquetBatchSize {
		return w.flushBuffer()
	}
	return nil
}

func (w *ParquetWriter) WriteBatch(records []Record) error {
	for i, r := range records {
		if err := w.Write(r); err != nil {
			return errors.Wrapf(err, "record %d", i)
		}
	}
	return nil
}

func (w *ParquetWriter) flushBuffer() error {
	if len(w.buffer) == 0 || w.writer == nil {
		return nil
	}
	if _, err := w.writer.WriteRows(w.buffer); err != nil {
		return errors.Wrap(err, "write parquet rows")
	}
	w.buffer = w.buffer[:0]
	return nil
}

func (w *ParquetWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.flushBuffer(); err != nil {
		return err
	}
	if w.writer != nil {
		return w.writer.Flush()
	}
	return nil
}

func (w *ParquetWriter) Close() error {
	err := w.Flush()
	if err == nil && w.writer != nil {
		err = w.writer.Close()
	}
	if w.file != nil {
		if cerr := w.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (w *ParquetWriter) Path() string {
	return w.path
}
