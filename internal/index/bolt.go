package index

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/xxxsen/docqa/internal/model"
)

var bucketRecords = []byte("index_records")

type boltConfig struct {
	Path string `json:"path"`
}

type storedRecord struct {
	Identifier string    `json:"id"`
	Vector     []float32 `json:"v"`
}

type boltJournal struct {
	db *bbolt.DB
}

func init() {
	RegisterJournal("bolt", func(args interface{}) (Journal, error) {
		cfg := &boltConfig{}
		if err := decodeConfig(args, cfg); err != nil {
			return nil, err
		}
		if cfg.Path == "" {
			return nil, fmt.Errorf("bolt journal path is required")
		}
		return OpenBoltJournal(cfg.Path)
	})
}

func OpenBoltJournal(path string) (Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt journal: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRecords)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create records bucket: %w", err)
	}
	return &boltJournal{db: db}, nil
}

func positionKey(position int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(position))
	return key
}

func (j *boltJournal) Load(ctx context.Context, fn func(model.Record) error) error {
	return j.db.View(func(tx *bbolt.Tx) error {
		// Big-endian keys iterate in position order.
		return tx.Bucket(bucketRecords).ForEach(func(k, v []byte) error {
			if len(k) != 8 {
				return fmt.Errorf("invalid record key length %d", len(k))
			}
			var stored storedRecord
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("decode record: %w", err)
			}
			return fn(model.Record{
				Position:   int(binary.BigEndian.Uint64(k)),
				Identifier: stored.Identifier,
				Vector:     stored.Vector,
			})
		})
	})
}

func (j *boltJournal) Append(ctx context.Context, rec model.Record) error {
	data, err := json.Marshal(storedRecord{Identifier: rec.Identifier, Vector: rec.Vector})
	if err != nil {
		return err
	}
	return j.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		key := positionKey(rec.Position)
		if b.Get(key) != nil {
			return fmt.Errorf("position %d: %w", rec.Position, ErrPositionTaken)
		}
		return b.Put(key, data)
	})
}

func (j *boltJournal) Close() error {
	return j.db.Close()
}
