package ports

import (
	"context"

	"sweffect/domain/study"
)

// DatasetReader loads a longitudinal dataset from an external source
type DatasetReader interface {
	// Read loads and validates the dataset at the given path.
	Read(ctx context.Context, path string, extraTimePoints int) (*study.Dataset, error)
}
