package index

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/docqa/internal/config"
	"github.com/xxxsen/docqa/internal/db"
	"github.com/xxxsen/docqa/internal/model"
	"github.com/xxxsen/docqa/internal/pkg/dbutil"
)

type postgresJournal struct {
	db *sqlx.DB
}

type recordRow struct {
	Position   int64           `db:"position"`
	Identifier string          `db:"identifier"`
	Embedding  pgvector.Vector `db:"embedding"`
}

func init() {
	RegisterJournal("postgres", func(args interface{}) (Journal, error) {
		cfg := config.DatabaseConfig{}
		if err := decodeConfig(args, &cfg); err != nil {
			return nil, err
		}
		conn, err := db.Open(cfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres journal: %w", err)
		}
		if err := db.ApplyMigrations(conn); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("migrate postgres journal: %w", err)
		}
		return NewPostgresJournal(conn), nil
	})
}

func NewPostgresJournal(conn *sqlx.DB) Journal {
	return &postgresJournal{db: conn}
}

func (j *postgresJournal) Load(ctx context.Context, fn func(model.Record) error) error {
	rows, err := j.db.QueryxContext(ctx, `SELECT position, identifier, embedding FROM index_records ORDER BY position`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var row recordRow
		if err := rows.StructScan(&row); err != nil {
			return err
		}
		if err := fn(model.Record{
			Position:   int(row.Position),
			Identifier: row.Identifier,
			Vector:     row.Embedding.Slice(),
		}); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (j *postgresJournal) Append(ctx context.Context, rec model.Record) error {
	query, args := dbutil.Finalize(
		`INSERT INTO index_records (position, identifier, embedding, ctime) VALUES (?, ?, ?, ?)`,
		[]interface{}{rec.Position, rec.Identifier, pgvector.NewVector(rec.Vector), time.Now().Unix()},
	)
	if _, err := j.db.ExecContext(ctx, query, args...); err != nil {
		if dbutil.IsConflict(err) {
			return fmt.Errorf("position %d: %w", rec.Position, ErrPositionTaken)
		}
		return err
	}
	return nil
}

func (j *postgresJournal) Close() error {
	return j.db.Close()
}
