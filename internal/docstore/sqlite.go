package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/didi/gendry/builder"
	_ "modernc.org/sqlite"
)

const createDocumentsTable = `
	CREATE TABLE IF NOT EXISTS documents (
		identifier TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		mtime INTEGER NOT NULL
	)
`

type sqliteConfig struct {
	Path string `json:"path"`
}

type sqliteStore struct {
	db *sql.DB
}

func init() {
	Register("sqlite", createSqliteStore)
}

func createSqliteStore(args interface{}) (Store, error) {
	cfg := &sqliteConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite store path is required")
	}
	return OpenSqlite(cfg.Path)
}

func OpenSqlite(path string) (Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, unavailable("open", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, unavailable("ping", err)
	}
	if _, err := db.Exec(createDocumentsTable); err != nil {
		_ = db.Close()
		return nil, unavailable("migrate", err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Put(ctx context.Context, identifier, text string) error {
	data := map[string]interface{}{
		"identifier": identifier,
		"text":       text,
		"mtime":      time.Now().UnixMilli(),
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr = strings.Replace(sqlStr, "INSERT INTO", "INSERT OR REPLACE INTO", 1)
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return unavailable("put", err)
	}
	return nil
}

func (s *sqliteStore) Get(ctx context.Context, identifier string) (string, bool, error) {
	where := map[string]interface{}{
		"identifier": identifier,
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, []string{"text"})
	if err != nil {
		return "", false, err
	}
	var text string
	if err := s.db.QueryRowContext(ctx, sqlStr, args...).Scan(&text); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, unavailable("get", err)
	}
	return text, true, nil
}

func (s *sqliteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM documents`).Scan(&count); err != nil {
		return 0, unavailable("count", err)
	}
	return count, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
