// Package datasource defines where dashboard input comes from.
package datasource

import (
	"context"
	"io"
)

// Source opens a byte stream.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// File is a Source with the metadata the upload gate needs before any byte
// is read.
type File interface {
	Source
	Name() string
	Size(ctx context.Context) (int64, error)
}
