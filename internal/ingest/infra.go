package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/dustin/go-humanize"
)

type diskSink struct {
	dir      string
	archiver Archiver
	log      *logger.ZapLogger
}

// NewDiskSink writes uploads under dir. archiver may be nil.
func NewDiskSink(dir string, archiver Archiver, log *logger.ZapLogger) (Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &diskSink{dir: dir, archiver: archiver, log: log}, nil
}

// Save keeps the client's filename, so two uploads with the same name overwrite each other.
// Files are left on disk after the request.
func (s *diskSink) Save(ctx context.Context, filename string, r io.Reader) (*os.File, error) {
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return nil, ErrNoFile
	}
	path := filepath.Join(s.dir, name)

	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	n, err := io.Copy(out, r)
	if err != nil {
		out.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write upload file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close upload file: %w", err)
	}

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: fmt.Sprintf("upload saved path=%s size=%s", path, humanize.Bytes(uint64(n))),
		Service: "ingest",
	})

	if s.archiver != nil {
		if url, err := s.archiver.Archive(ctx, path); err != nil {
			s.log.Log(logger.LogEntry{Level: "warn", Message: "upload archive failed: " + path, Service: "ingest", Error: err})
		} else {
			s.log.Log(logger.LogEntry{Level: "info", Message: "upload archived " + url, Service: "ingest"})
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reopen upload file: %w", err)
	}
	return f, nil
}
