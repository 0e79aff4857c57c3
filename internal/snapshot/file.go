package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"storewatch/internal/catalog"
	logx "storewatch/pkg/logx"
)

// fileStore keeps the snapshot as one JSON array.
//
// Writes go to a temp file in the same directory, are fsynced, then renamed
// over the target, so a concurrent Load sees either the old or the new
// document and never a truncated one.
type fileStore struct {
	log  logx.Logger
	path string
	keys catalog.Keys
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := filepath.Clean(strings.TrimSpace(cfg.Path))
	return &fileStore{log: log, path: path, keys: cfg.Keys}, nil
}

func (s *fileStore) Load(ctx context.Context) (catalog.Collection, bool, error) {
	_ = ctx
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, &ReadError{Path: s.path, Err: err}
	}
	items, err := catalog.DecodeCollection(data, s.keys)
	if err != nil {
		return nil, false, &ReadError{Path: s.path, Err: err}
	}
	return items, true, nil
}

func (s *fileStore) Save(ctx context.Context, items catalog.Collection) error {
	_ = ctx
	if items == nil {
		items = catalog.Collection{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return &WriteError{Path: s.path, Err: fmt.Errorf("marshal: %w", err)}
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	s.log.Debug("snapshot saved", logx.String("path", s.path), logx.Int("items", len(items)), logx.Int("bytes", len(data)))
	return nil
}

func (s *fileStore) Close() error { return nil }

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true

	// Persist the rename itself. Not supported everywhere; best-effort.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
