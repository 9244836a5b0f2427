// Package collecting reads host sensors into flat samples.
package collecting

import (
	"context"

	"DatasetGenerator/pkg/table"
)

// Collector adds its readings for one sample to s.
type Collector interface {
	Name() string
	Collect(ctx context.Context, s table.Sample) error
	Close() error
}

// Source produces one complete sample per call.
type Source interface {
	Collect(ctx context.Context) (table.Sample, error)
}
