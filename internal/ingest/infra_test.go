package ingest

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingArchiver struct {
	paths []string
	err   error
}

func (a *recordingArchiver) Archive(_ context.Context, path string) (string, error) {
	a.paths = append(a.paths, path)
	if a.err != nil {
		return "", a.err
	}
	return "https://s3.local/bucket/" + filepath.Base(path), nil
}

func newSink(t *testing.T, archiver Archiver) (Sink, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	sink, err := NewDiskSink(dir, archiver, logger.NewZapLogger(zap.NewNop().Sugar()))
	require.NoError(t, err)
	return sink, dir
}

func TestSaveWritesAndReopens(t *testing.T) {
	sink, dir := newSink(t, nil)

	f, err := sink.Save(context.Background(), "answer.webm", strings.NewReader("audio bytes"))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, filepath.Join(dir, "answer.webm"), f.Name())
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "audio bytes", string(data))
}

func TestSaveSameNameOverwrites(t *testing.T) {
	sink, dir := newSink(t, nil)
	ctx := context.Background()

	f1, err := sink.Save(ctx, "clip.mp3", strings.NewReader("first"))
	require.NoError(t, err)
	f1.Close()
	f2, err := sink.Save(ctx, "clip.mp3", strings.NewReader("second"))
	require.NoError(t, err)
	f2.Close()

	data, err := os.ReadFile(filepath.Join(dir, "clip.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestSaveStripsDirectories(t *testing.T) {
	sink, dir := newSink(t, nil)

	f, err := sink.Save(context.Background(), "../../etc/clip.wav", strings.NewReader("x"))
	require.NoError(t, err)
	f.Close()

	_, err = os.Stat(filepath.Join(dir, "clip.wav"))
	assert.NoError(t, err)
}

func TestSaveRemovesPartialUpload(t *testing.T) {
	sink, dir := newSink(t, nil)
	boom := errors.New("connection reset")

	body := io.MultiReader(strings.NewReader("half an answer"), iotest.ErrReader(boom))
	_, err := sink.Save(context.Background(), "answer.webm", body)
	require.ErrorIs(t, err, boom)

	_, err = os.Stat(filepath.Join(dir, "answer.webm"))
	assert.True(t, os.IsNotExist(err))
}

func TestSaveRejectsEmptyName(t *testing.T) {
	sink, _ := newSink(t, nil)

	_, err := sink.Save(context.Background(), "", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrNoFile)
}

func TestArchiveFailureIsNotFatal(t *testing.T) {
	arch := &recordingArchiver{err: errors.New("s3 down")}
	sink, dir := newSink(t, arch)

	f, err := sink.Save(context.Background(), "clip.ogg", strings.NewReader("x"))
	require.NoError(t, err)
	f.Close()

	assert.Equal(t, []string{filepath.Join(dir, "clip.ogg")}, arch.paths)
}

func TestObjectKey(t *testing.T) {
	at := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "uploads/2024-03-09/clip.ogg", ObjectKey(at, "/tmp/x/clip.ogg"))
}
