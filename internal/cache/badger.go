package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/devchat-app/aidebug/internal/model"
)

const badgerGCInterval = 10 * time.Minute

// BadgerCache persists reports in a Badger key-value store. Expiry is
// delegated to Badger entry TTLs.
type BadgerCache struct {
	db  *badger.DB
	ttl time.Duration

	gcStop chan struct{}

	hits   atomic.Int64
	misses atomic.Int64
}

// NewBadgerCache opens (or creates) a cache in dir. An empty dir keeps
// the store in memory.
func NewBadgerCache(dir string, ttl time.Duration) (*BadgerCache, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger cache: %w", err)
	}

	c := &BadgerCache{
		db:     db,
		ttl:    ttl,
		gcStop: make(chan struct{}),
	}
	if dir != "" {
		go c.runGC()
	}
	return c, nil
}

func (c *BadgerCache) Get(key string) (*model.Report, bool, error) {
	var report model.Report

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &report)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	c.hits.Add(1)
	return &report, true, nil
}

func (c *BadgerCache) Set(key string, report *model.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), data)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
}

func (c *BadgerCache) Clear() error {
	return c.db.DropAll()
}

func (c *BadgerCache) Stats() Stats {
	entries := 0
	_ = c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			entries++
		}
		return nil
	})

	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: entries,
	}
}

func (c *BadgerCache) Close() error {
	close(c.gcStop)
	return c.db.Close()
}

func (c *BadgerCache) runGC() {
	ticker := time.NewTicker(badgerGCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// ErrNoRewrite just means there was nothing to reclaim.
			_ = c.db.RunValueLogGC(0.5)
		case <-c.gcStop:
			return
		}
	}
}
