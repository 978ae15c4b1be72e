package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/unifoot/unifoot/internal/store"
)

// Snapshotter persists the canonical collections as a single JSON document on
// local disk. Writes go through a temp file and rename so a crash mid-write
// never leaves a truncated snapshot behind.
type Snapshotter struct {
	path string
}

func NewSnapshotter(path string) *Snapshotter {
	return &Snapshotter{path: path}
}

func (s *Snapshotter) Load(ctx context.Context) (store.Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return store.Snapshot{}, false, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return store.Snapshot{}, false, nil
	}
	if err != nil {
		return store.Snapshot{}, false, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}

	var snapshot store.Snapshot
	if err := sonic.Unmarshal(data, &snapshot); err != nil {
		return store.Snapshot{}, false, fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}

	return snapshot, true, nil
}

func (s *Snapshotter) Save(ctx context.Context, snapshot store.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := sonic.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync snapshot temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot %s: %w", s.path, err)
	}

	return nil
}
