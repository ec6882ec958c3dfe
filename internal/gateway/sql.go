package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kowaiquest/internal/database"
)

// SQLGateway stores documents as JSON rows in the documents table
type SQLGateway struct {
	db  *database.DB
	now func() time.Time
}

// NewSQLGateway creates a gateway over a migrated database
func NewSQLGateway(db *database.DB) *SQLGateway {
	return &SQLGateway{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (g *SQLGateway) Get(ctx context.Context, collection, id string) (Document, error) {
	return g.get(ctx, g.db, collection, id, "")
}

func (g *SQLGateway) get(ctx context.Context, q database.DBTX, collection, id, suffix string) (Document, error) {
	query := "SELECT data FROM documents WHERE collection_path = ? AND doc_id = ?" + suffix
	var data string
	err := q.QueryRowContext(ctx, query, collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s/%s: %w", collection, id, err)
	}
	return unmarshalDocument([]byte(data))
}

func (g *SQLGateway) Set(ctx context.Context, collection, id string, data Document) error {
	raw, err := marshalDocument(data)
	if err != nil {
		return err
	}
	now := g.now()
	if _, err := g.db.ExecContext(ctx, g.db.GetDialect().UpsertDocumentQuery(), collection, id, string(raw), now, now); err != nil {
		return fmt.Errorf("failed to set document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (g *SQLGateway) Update(ctx context.Context, collection, id string, patch Document) error {
	return g.db.WithTx(ctx, func(tx *database.Tx) error {
		doc, err := g.get(ctx, tx, collection, id, tx.GetDialect().LockingReadSuffix())
		if err != nil {
			return err
		}
		if err := Merge(doc, patch); err != nil {
			return err
		}
		raw, err := marshalDocument(doc)
		if err != nil {
			return err
		}
		query := "UPDATE documents SET data = ?, updated_at = ? WHERE collection_path = ? AND doc_id = ?"
		if _, err := tx.ExecContext(ctx, query, string(raw), g.now(), collection, id); err != nil {
			return fmt.Errorf("failed to update document %s/%s: %w", collection, id, err)
		}
		return nil
	})
}

func (g *SQLGateway) Delete(ctx context.Context, collection, id string) error {
	query := "DELETE FROM documents WHERE collection_path = ? AND doc_id = ?"
	if _, err := g.db.ExecContext(ctx, query, collection, id); err != nil {
		return fmt.Errorf("failed to delete document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (g *SQLGateway) List(ctx context.Context, collection string) ([]Entry, error) {
	query := "SELECT doc_id, data FROM documents WHERE collection_path = ? ORDER BY doc_id"
	rows, err := g.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", collection, err)
		}
		doc, err := unmarshalDocument([]byte(data))
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{ID: id, Data: doc})
	}
	return entries, rows.Err()
}

// Close closes the underlying database
func (g *SQLGateway) Close() error {
	return g.db.Close()
}
