package ingest

import (
	"context"
	"errors"
	"io"
	"os"
)

var ErrNoFile = errors.New("upload has no usable filename")

// Sink stores an uploaded clip on local disk and hands back a read handle to it.
type Sink interface {
	Save(ctx context.Context, filename string, r io.Reader) (*os.File, error)
}

// Archiver copies a saved upload somewhere durable.
type Archiver interface {
	Archive(ctx context.Context, path string) (url string, err error)
}
