package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dd0wney/enod/pkg/logging"
	"github.com/dd0wney/enod/pkg/tsdb"
	"github.com/google/uuid"
)

// ErrObjectNotFound is returned by an ObjectStore for a missing key.
var ErrObjectNotFound = errors.New("backup object not found")

// ObjectStore keeps snapshots under string keys.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.ReadSeeker) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// NewKey returns a unique snapshot key under prefix, ordered by creation time.
func NewKey(prefix string) string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return fmt.Sprintf("%s%s-%s.enbk", prefix, time.Now().UTC().Format("20060102T150405Z"), uuid.NewString())
}

// Upload snapshots e and stores it under key. A nil logger uses the default.
func Upload(ctx context.Context, store ObjectStore, e *tsdb.Engine, key string, logger logging.Logger) (Manifest, error) {
	logger = backupLogger(logger, key)
	timer := logging.StartTimer(logger, "upload backup")

	var buf bytes.Buffer
	m, err := Write(&buf, e)
	if err != nil {
		timer.EndError(err)
		return m, err
	}
	if err := store.Put(ctx, key, bytes.NewReader(buf.Bytes())); err != nil {
		err = fmt.Errorf("put %s: %w", key, err)
		timer.EndError(err)
		return m, err
	}

	timer.End(logging.Count(m.Count), logging.Bytes(int64(buf.Len())))
	return m, nil
}

// Download fetches the snapshot under key and restores it into a new data
// file at path. A nil logger uses the default.
func Download(ctx context.Context, store ObjectStore, key, path string, logger logging.Logger, opts ...tsdb.Option) (*tsdb.Engine, Manifest, error) {
	logger = backupLogger(logger, key)
	timer := logging.StartTimer(logger, "download backup", logging.Path(path))

	body, err := store.Get(ctx, key)
	if err != nil {
		err = fmt.Errorf("get %s: %w", key, err)
		timer.EndError(err)
		return nil, Manifest{}, err
	}
	defer body.Close()

	e, m, err := Restore(body, path, opts...)
	if err != nil {
		timer.EndError(err)
		return nil, m, err
	}

	timer.End(logging.Count(m.Count))
	return e, m, nil
}

func backupLogger(logger logging.Logger, key string) logging.Logger {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return logger.With(logging.Component("backup"), logging.String("key", key))
}
