package store

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mmcdole/longbox/internal/domain"
)

// Bucket names
var (
	bucketComics = []byte("comics")
	bucketSync   = []byte("sync")
)

var keyCursor = []byte("cursor")

const dbFileName = "longbox.db"

// LibraryStore implements domain.Store using BoltDB.
type LibraryStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects the memory copy

	// Memory-only mode keeps everything here instead of on disk
	comics map[int64][]byte
	cursor domain.SyncCursor
}

var _ domain.Store = (*LibraryStore)(nil)

// NewLibraryStore opens the cache for serverURL under baseCacheDir.
// An empty baseCacheDir gives a memory-only store.
func NewLibraryStore(baseCacheDir, serverURL string) (*LibraryStore, error) {
	if baseCacheDir == "" {
		// Memory-only mode (no persistence)
		return &LibraryStore{comics: make(map[int64][]byte)}, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, dbFileName)
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketComics, bucketSync} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &LibraryStore{db: db}, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

// Path returns the database file, or "" in memory-only mode.
func (s *LibraryStore) Path() string {
	if s.db == nil {
		return ""
	}
	return s.db.Path()
}

func (s *LibraryStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load returns every stored comic in ID order and the stored cursor.
func (s *LibraryStore) Load() ([]domain.Comic, domain.SyncCursor, error) {
	if s.db == nil {
		return s.loadMemory()
	}

	var (
		comics []domain.Comic
		cursor domain.SyncCursor
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketSync).Get(keyCursor); v != nil {
			if err := json.Unmarshal(v, &cursor); err != nil {
				return fmt.Errorf("decode cursor: %w", err)
			}
		}
		return tx.Bucket(bucketComics).ForEach(func(k, v []byte) error {
			var c domain.Comic
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("decode comic %d: %w", decodeID(k), err)
			}
			comics = append(comics, c)
			return nil
		})
	})
	if err != nil {
		return nil, domain.SyncCursor{}, err
	}
	return comics, cursor, nil
}

// SaveBatch writes comics and cursor in one transaction.
func (s *LibraryStore) SaveBatch(comics []domain.Comic, cursor domain.SyncCursor) error {
	encoded := make(map[int64][]byte, len(comics))
	for _, c := range comics {
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode comic %d: %w", c.ID, err)
		}
		encoded[c.ID] = data
	}

	if s.db == nil {
		s.mu.Lock()
		for id, data := range encoded {
			s.comics[id] = data
		}
		s.cursor = cursor
		s.mu.Unlock()
		return nil
	}

	cursorData, err := json.Marshal(cursor)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketComics)
		for id, data := range encoded {
			if err := b.Put(encodeID(id), data); err != nil {
				return err
			}
		}
		return tx.Bucket(bucketSync).Put(keyCursor, cursorData)
	})
}

// Reset removes every comic and the cursor in one transaction.
func (s *LibraryStore) Reset() error {
	if s.db == nil {
		s.mu.Lock()
		s.comics = make(map[int64][]byte)
		s.cursor = domain.SyncCursor{}
		s.mu.Unlock()
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketComics, bucketSync} {
			if err := tx.DeleteBucket(bucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return err
			}
			if _, err := tx.CreateBucket(bucket); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of stored comics.
func (s *LibraryStore) Count() int {
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.comics)
	}

	n := 0
	s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketComics).Stats().KeyN
		return nil
	})
	return n
}

func (s *LibraryStore) loadMemory() ([]domain.Comic, domain.SyncCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.comics))
	for id := range s.comics {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	comics := make([]domain.Comic, 0, len(ids))
	for _, id := range ids {
		var c domain.Comic
		if err := json.Unmarshal(s.comics[id], &c); err != nil {
			return nil, domain.SyncCursor{}, fmt.Errorf("decode comic %d: %w", id, err)
		}
		comics = append(comics, c)
	}
	return comics, s.cursor, nil
}

// encodeID gives big-endian keys so bolt iterates in ID order.
func encodeID(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

func decodeID(k []byte) int64 {
	if len(k) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(k))
}
