package exporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"DatasetGenerator/pkg/table"
)

// Exporter writes the rows of a table to one output file.
type Exporter struct {
	path        string
	format      string
	writer      Writer
	flattenMode FlattenMode
	batchSize   int
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithFlattenMode sets how vector slots are laid out.
func WithFlattenMode(mode FlattenMode) ExporterOption {
	return func(e *Exporter) {
		e.flattenMode = mode
	}
}

// WithBatchSize sets how many rows are handed to the writer per batch.
// Values below 1 select ParquetBatchSize.
func WithBatchSize(n int) ExporterOption {
	return func(e *Exporter) {
		e.batchSize = n
	}
}

// NewExporter creates the output file at path. An empty format is taken from
// the path's extension.
func NewExporter(path, format string, opts ...ExporterOption) (*Exporter, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "create output directory")
		}
	}

	var (
		f  Format
		ok bool
	)
	if format == "" {
		f, ok = GetByPath(path)
	} else {
		f, ok = Get(format)
	}
	if !ok {
		return nil, errors.Errorf("unsupported format %q for %s (valid: %s)", format, path, strings.Join(Names(), ", "))
	}

	writer := f.Writer()
	if err := writer.Init(path); err != nil {
		return nil, errors.Wrap(err, "initialize writer")
	}

	e := &Exporter{path: path, format: f.Name(), writer: writer}
	for _, opt := range opts {
		opt(e)
	}
	if e.batchSize < 1 {
		e.batchSize = ParquetBatchSize
	}
	return e, nil
}

func (e *Exporter) Path() string   { return e.path }
func (e *Exporter) Format() string { return e.format }

// WriteTable writes rows 0..t.Len()-1 in batches and returns how many were
// written. Positions past the high-water mark were never sampled and are skipped.
func (e *Exporter) WriteTable(t *table.Table) (int, error) {
	cols := Columns(t, e.flattenMode)
	batch := make([]Record, 0, min(e.batchSize, t.Len()))
	written := 0
	for i := 0; i < t.Len(); i++ {
		r, err := FlattenRow(cols, i)
		if err != nil {
			return written, errors.Wrapf(err, "row %d", i)
		}
		batch = append(batch, r)
		if len(batch) < e.batchSize && i < t.Len()-1 {
			continue
		}
		if err := e.writer.WriteBatch(batch); err != nil {
			return written, errors.Wrapf(err, "write rows %d-%d", written, i)
		}
		written += len(batch)
		batch = batch[:0]
	}
	return written, e.writer.Flush()
}

// WriteAttrs writes the attributes of every group of t to a JSON file next to
// the export, named <base>_attrs.json.
func (e *Exporter) WriteAttrs(t *table.Table) (string, error) {
	attrs := map[string]table.Attrs{"/": t.Root().Attrs()}
	err := t.Walk(func(n table.Node) error {
		if g, ok := n.(*table.Group); ok {
			if a := g.Attrs(); len(a) > 0 {
				attrs[g.Path()] = a
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(attrs, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "marshal attributes")
	}
	base := strings.TrimSuffix(e.path, filepath.Ext(e.path))
	path := base + "_attrs.json"
	return path, errors.Wrap(os.WriteFile(path, data, 0644), "write attributes")
}

func (e *Exporter) Close() error {
	return e.writer.Close()
}

// Export writes every sampled row of t to path and closes the output.
func Export(t *table.Table, path, format string, opts ...ExporterOption) (int, error) {
	e, err := NewExporter(path, format, opts...)
	if err != nil {
		return 0, err
	}
	n, err := e.WriteTable(t)
	return n, multierr.Append(err, e.Close())
}
