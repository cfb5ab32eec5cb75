package cache

import (
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// SetClock overrides the time source so tests can age entries.
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

// PutRaw stores bytes for key without the usual envelope, so tests can plant
// undecodable entries.
func (c *Cache) PutRaw(key string, raw []byte) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(digest(key)), raw)
	})
}
