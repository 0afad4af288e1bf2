package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"blockshell/internal/domain"
)

const sessionBucket = "workspace_sessions"

// Bolt stores one JSON value per tab in a bbolt bucket.
type Bolt struct {
	db *bbolt.DB
}

// OpenBolt opens the bbolt file at path.
func OpenBolt(path string) (*Bolt, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create bolt dir: %w", err)
	}
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create %s bucket: %w", sessionBucket, err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *Bolt) LoadAll(ctx context.Context) ([]domain.WorkspaceSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []domain.WorkspaceSession
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("%s bucket is missing", sessionBucket)
		}
		return bucket.ForEach(func(k, v []byte) error {
			var rec domain.WorkspaceSession
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal session %s: %w", k, err)
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SaveAll recreates the bucket in a single update transaction.
func (b *Bolt) SaveAll(ctx context.Context, sessions []domain.WorkspaceSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(sessionBucket)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return fmt.Errorf("clear %s bucket: %w", sessionBucket, err)
		}
		bucket, err := tx.CreateBucket([]byte(sessionBucket))
		if err != nil {
			return fmt.Errorf("create %s bucket: %w", sessionBucket, err)
		}
		for _, rec := range sessions {
			if rec.Windows == nil {
				rec.Windows = []domain.WindowSnapshot{}
			}
			payload, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("marshal session %s: %w", rec.TabID, err)
			}
			if err := bucket.Put([]byte(rec.TabID), payload); err != nil {
				return err
			}
		}
		return nil
	})
}
