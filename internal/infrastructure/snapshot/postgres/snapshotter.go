package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	qb "github.com/unifoot/unifoot/internal/platform/querybuilder"
	"github.com/unifoot/unifoot/internal/store"
)

// The canonical collections are checkpointed as one opaque document in a
// single-row table. Postgres gives the checkpoint durability across hosts;
// the row is never read concurrently with a write because checkpointing is
// single-flight in the caller.
const snapshotRowID = 1

type snapshotTableModel struct {
	ID      int       `db:"id"`
	Payload []byte    `db:"payload"`
	SavedAt time.Time `db:"saved_at"`
}

type Snapshotter struct {
	db *sqlx.DB
}

func NewSnapshotter(db *sqlx.DB) *Snapshotter {
	return &Snapshotter{db: db}
}

func (s *Snapshotter) Load(ctx context.Context) (store.Snapshot, bool, error) {
	query, args, err := qb.Select("id", "payload", "saved_at").
		From("store_snapshots").
		Where(qb.Eq("id", snapshotRowID)).
		ToSQL()
	if err != nil {
		return store.Snapshot{}, false, fmt.Errorf("build select snapshot query: %w", err)
	}

	var row snapshotTableModel
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return store.Snapshot{}, false, nil
		}
		return store.Snapshot{}, false, fmt.Errorf("get snapshot: %w", err)
	}

	var snapshot store.Snapshot
	if err := sonic.Unmarshal(row.Payload, &snapshot); err != nil {
		return store.Snapshot{}, false, fmt.Errorf("decode snapshot payload: %w", err)
	}
	if snapshot.SavedAt.IsZero() {
		snapshot.SavedAt = row.SavedAt
	}

	return snapshot, true, nil
}

func (s *Snapshotter) Save(ctx context.Context, snapshot store.Snapshot) error {
	payload, err := sonic.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot payload: %w", err)
	}

	row := snapshotTableModel{
		ID:      snapshotRowID,
		Payload: payload,
		SavedAt: snapshot.SavedAt,
	}
	query, args, err := qb.InsertModel("store_snapshots", row,
		"ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, saved_at = EXCLUDED.saved_at")
	if err != nil {
		return fmt.Errorf("build upsert snapshot query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}

	return nil
}

func isNotFound(err error) bool {
	return err == sql.ErrNoRows
}
