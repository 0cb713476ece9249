package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/kinotv/internal/domain"
	"github.com/samber/lo"
	"github.com/samber/mo"
	bolt "go.etcd.io/bbolt"
)

var bucketProgress = []byte("progress")

// ProgressStore implements domain.ProgressHistory using BoltDB.
type ProgressStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access). In
	// memory-only mode it is the whole store.
	cache map[string][]byte
}

var _ domain.ProgressHistory = (*ProgressStore)(nil)

// NewProgressStore opens the store under baseCacheDir, one database per
// server. An empty baseCacheDir keeps everything in memory.
func NewProgressStore(baseCacheDir, serverURL string) (*ProgressStore, error) {
	if baseCacheDir == "" {
		return &ProgressStore{cache: make(map[string][]byte)}, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "progress.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketProgress)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &ProgressStore{db: db, cache: make(map[string][]byte)}, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *ProgressStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// IDs are query-escaped so a ':' inside one cannot forge another user's
// prefix or key
func userPrefix(userID string) string {
	return "user:" + url.QueryEscape(userID) + ":content:"
}

func progressKey(userID, contentID string) string {
	return userPrefix(userID) + url.QueryEscape(contentID)
}

// === Generic helpers ===

func (s *ProgressStore) get(key string) ([]byte, error) {
	s.mu.RLock()
	if data, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return data, nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil, nil
	}

	// promote under the write lock; a concurrent set must win over this read
	s.mu.Lock()
	defer s.mu.Unlock()
	if data, ok := s.cache[key]; ok {
		return data, nil
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketProgress).Get([]byte(key)); v != nil {
			data = slices.Clone(v)
		}
		return nil
	})
	if err != nil || data == nil {
		return nil, err
	}
	s.cache[key] = data
	return data, nil
}

// set writes through to disk and cache under one lock
func (s *ProgressStore) set(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketProgress).Put([]byte(key), data)
		})
		if err != nil {
			return err
		}
	}
	s.cache[key] = data
	return nil
}

// scan returns every stored value under prefix
func (s *ProgressStore) scan(prefix string) ([][]byte, error) {
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		var out [][]byte
		for k, v := range s.cache {
			if strings.HasPrefix(k, prefix) {
				out = append(out, v)
			}
		}
		return out, nil
	}

	var out [][]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketProgress).Cursor()
		p := []byte(prefix)
		for k, v := c.Seek(p); k != nil && strings.HasPrefix(string(k), prefix); k, v = c.Next() {
			out = append(out, slices.Clone(v))
		}
		return nil
	})
	return out, err
}

// === Progress ===

// Save upserts the record; the latest call wins
func (s *ProgressStore) Save(ctx context.Context, p domain.WatchProgress) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.set(progressKey(p.UserID, p.ContentID), data)
}

func (s *ProgressStore) Get(ctx context.Context, userID, contentID string) (mo.Option[domain.WatchProgress], error) {
	if err := ctx.Err(); err != nil {
		return mo.None[domain.WatchProgress](), err
	}
	data, err := s.get(progressKey(userID, contentID))
	if err != nil || data == nil {
		return mo.None[domain.WatchProgress](), err
	}
	var p domain.WatchProgress
	if err := json.Unmarshal(data, &p); err != nil {
		return mo.None[domain.WatchProgress](), fmt.Errorf("decode progress %s: %w", contentID, err)
	}
	return mo.Some(p), nil
}

// MarkCompleted flags an existing record and moves its position to the end.
// A missing record is left missing.
func (s *ProgressStore) MarkCompleted(ctx context.Context, userID, contentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	key := progressKey(userID, contentID)
	mark := func(data []byte) ([]byte, error) {
		var p domain.WatchProgress
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		p.Completed = true
		if p.DurationMs > 0 {
			p.PositionMs = p.DurationMs
		}
		p.UpdatedAt = time.Now()
		return json.Marshal(p)
	}

	if s.db == nil {
		data, ok := s.cache[key]
		if !ok {
			return nil
		}
		updated, err := mark(data)
		if err != nil {
			return err
		}
		s.cache[key] = updated
		return nil
	}

	var updated []byte
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProgress)
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		var err error
		if updated, err = mark(v); err != nil {
			return err
		}
		return b.Put([]byte(key), updated)
	})
	if err != nil {
		return err
	}
	if updated != nil {
		s.cache[key] = updated
	}
	return nil
}

// ContinueWatching returns the user's started but unfinished records,
// most recently updated first.
func (s *ProgressStore) ContinueWatching(ctx context.Context, userID string) ([]domain.WatchProgress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := s.scan(userPrefix(userID))
	if err != nil {
		return nil, err
	}

	records := make([]domain.WatchProgress, 0, len(raw))
	for _, data := range raw {
		var p domain.WatchProgress
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		records = append(records, p)
	}

	records = lo.Filter(records, func(p domain.WatchProgress, _ int) bool {
		return !p.Completed && p.PositionMs > 0
	})
	slices.SortFunc(records, func(a, b domain.WatchProgress) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return records, nil
}
