// Package cache stores raw catalog responses keyed by request, so that
// rebuilding a network doesn't repeat calls the catalog answered recently.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// TTL is how long a stored response stays usable. An entry older than this
// is treated as absent; there is no other eviction, since write volume is
// bounded by the size of the catalog.
const TTL = 7 * 24 * time.Hour

var ErrMiss = errors.New("cache miss")

type Cache struct {
	db  *badger.DB
	now func() time.Time
}

// Open opens (creating if necessary) a cache stored at dir.
func Open(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("error opening cache at '%s': %w", dir, err)
	}
	return &Cache{db: db, now: time.Now}, nil
}

// OpenInMemory opens a cache that keeps nothing across restarts. Tests use
// it; so can one-off queries that shouldn't leave files behind.
func OpenInMemory() (*Cache, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("error opening in-memory cache: %w", err)
	}
	return &Cache{db: db, now: time.Now}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// envelope wraps a stored payload with its fetch time, so expiry is checked
// on read rather than trusted to the store.
type envelope struct {
	CachedAt time.Time `json:"cached_at"`
	Payload  []byte    `json:"payload"`
}

// Get returns the payload stored for key. It returns ErrMiss when there is
// no entry, the entry has expired, or the entry can't be decoded: callers
// treat all three the same way, by fetching again and overwriting.
func (c *Cache) Get(key string) ([]byte, error) {
	hash := digest(key)

	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(hash))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("no cache entry '%s': %w", hash, ErrMiss)
	} else if err != nil {
		return nil, fmt.Errorf("error reading cache entry '%s': %w", hash, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("corrupt cache entry '%s': %w", hash, ErrMiss)
	}
	if c.now().Sub(env.CachedAt) > TTL {
		return nil, fmt.Errorf("expired cache entry '%s': %w", hash, ErrMiss)
	}

	return env.Payload, nil
}

// Put stores payload for key with a fresh timestamp, replacing any prior
// entry. Writes go through a badger transaction, so a replaced entry is
// swapped whole: racing writers settle on one of their payloads, never an
// interleaving.
func (c *Cache) Put(key string, payload []byte) error {
	hash := digest(key)

	raw, err := json.Marshal(envelope{CachedAt: c.now(), Payload: payload})
	if err != nil {
		return fmt.Errorf("error encoding cache entry '%s': %w", hash, err)
	}

	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(hash), raw)
	}); err != nil {
		return fmt.Errorf("error writing cache entry '%s': %w", hash, err)
	}

	return nil
}

// digest maps a request descriptor to a fixed-length key. Two semantically
// identical requests must produce identical descriptor strings upstream.
func digest(key string) string {
	var hasher = sha256.New()
	hasher.Write([]byte(key))
	return hex.EncodeToString(hasher.Sum(nil))
}
