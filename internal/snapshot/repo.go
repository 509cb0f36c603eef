// Package snapshot stores fetched copies of the portal indexes in SQLite so
// the services can keep answering while the portal API is down.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"cellhub/pkg/models"
)

var ErrNoSnapshot = errors.New("snapshot: none stored")

type Snapshot struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
	Collections int       `json:"collections"`
	Datasets    int       `json:"datasets"`
}

type Repo struct {
	DB  *sql.DB
	now func() time.Time
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db, now: time.Now}
}

// Save stores both indexes as one snapshot, keeping response order.
func (r *Repo) Save(ctx context.Context, source string, collections []models.CollectionResponse, datasets []models.DatasetResponse) (Snapshot, error) {
	snap := Snapshot{
		ID:          ulid.Make().String(),
		Source:      source,
		CreatedAt:   r.now().UTC().Truncate(time.Second),
		Collections: len(collections),
		Datasets:    len(datasets),
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, source, created_at, collection_count, dataset_count)
		VALUES (?, ?, ?, ?, ?)
	`, snap.ID, snap.Source, snap.CreatedAt.Unix(), snap.Collections, snap.Datasets); err != nil {
		return Snapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}

	cstmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_collections (snapshot_id, position, id, name, published_at, revised_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("prepare collections: %w", err)
	}
	defer cstmt.Close()

	for i, c := range collections {
		if _, err := cstmt.ExecContext(ctx, snap.ID, i, c.ID, c.Name, c.PublishedAt, c.RevisedAt); err != nil {
			return Snapshot{}, fmt.Errorf("insert collection %s: %w", c.ID, err)
		}
	}

	dstmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_datasets (snapshot_id, position, id, collection_id, payload)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("prepare datasets: %w", err)
	}
	defer dstmt.Close()

	for i, d := range datasets {
		payload, err := json.Marshal(d)
		if err != nil {
			return Snapshot{}, fmt.Errorf("marshal dataset %s: %w", d.ID, err)
		}
		if _, err := dstmt.ExecContext(ctx, snap.ID, i, d.ID, d.CollectionID, string(payload)); err != nil {
			return Snapshot{}, fmt.Errorf("insert dataset %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("commit tx: %w", err)
	}
	return snap, nil
}

// Latest returns the newest snapshot or ErrNoSnapshot.
func (r *Repo) Latest(ctx context.Context) (Snapshot, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, source, created_at, collection_count, dataset_count
		FROM snapshots
		ORDER BY id DESC
		LIMIT 1
	`)
	return scanSnapshot(row)
}

func (r *Repo) Get(ctx context.Context, id string) (Snapshot, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, source, created_at, collection_count, dataset_count
		FROM snapshots
		WHERE id = ?
	`, id)
	return scanSnapshot(row)
}

// List returns up to limit snapshots, newest first.
func (r *Repo) List(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, source, created_at, collection_count, dataset_count
		FROM snapshots
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) LoadCollections(ctx context.Context, snapshotID string) ([]models.CollectionResponse, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, published_at, revised_at
		FROM snapshot_collections
		WHERE snapshot_id = ?
		ORDER BY position
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	out := []models.CollectionResponse{}
	for rows.Next() {
		var c models.CollectionResponse
		if err := rows.Scan(&c.ID, &c.Name, &c.PublishedAt, &c.RevisedAt); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) LoadDatasets(ctx context.Context, snapshotID string) ([]models.DatasetResponse, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT payload
		FROM snapshot_datasets
		WHERE snapshot_id = ?
		ORDER BY position
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}
	defer rows.Close()

	out := []models.DatasetResponse{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		var d models.DatasetResponse
		if err := json.Unmarshal([]byte(payload), &d); err != nil {
			return nil, fmt.Errorf("decode dataset payload: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep snapshots.
func (r *Repo) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM snapshots
		WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(s scanner) (Snapshot, error) {
	var (
		snap    Snapshot
		created int64
	)
	if err := s.Scan(&snap.ID, &snap.Source, &created, &snap.Collections, &snap.Datasets); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, ErrNoSnapshot
		}
		return Snapshot{}, fmt.Errorf("scan snapshot: %w", err)
	}
	snap.CreatedAt = time.Unix(created, 0).UTC()
	return snap, nil
}
