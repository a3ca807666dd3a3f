package schema

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

const snapshotPrefix = "schema/"

// BadgerStore keeps dictionary snapshots in a BadgerDB keyed by graph and
// kind. One store may serve every graph of a client.
type BadgerStore struct {
	db *badger.DB

	mu     sync.RWMutex
	closed bool
}

// NewBadgerStore opens (or creates) a snapshot store in dir.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	return openBadgerStore(badger.DefaultOptions(dir))
}

// NewBadgerStoreInMemory opens a store that lives only as long as the process.
func NewBadgerStoreInMemory() (*BadgerStore, error) {
	return openBadgerStore(badger.DefaultOptions("").WithInMemory(true))
}

func openBadgerStore(opts badger.Options) (*BadgerStore, error) {
	opts = opts.
		WithLogger(nil).
		WithMemTableSize(8 << 20).
		WithValueLogFileSize(16 << 20).
		WithNumMemtables(1).
		WithBlockCacheSize(4 << 20).
		WithIndexCacheSize(2 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema snapshot store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func snapshotKey(graph string, kind Kind) []byte {
	return []byte(snapshotPrefix + graph + "\x00" + kind.String())
}

func graphPrefix(graph string) []byte {
	return []byte(snapshotPrefix + graph + "\x00")
}

// Load returns the snapshot for graph and kind, reporting false when absent.
func (s *BadgerStore) Load(graph string, kind Kind) ([]string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrStoreClosed
	}

	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(graph, kind))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewReader(val)).Decode(&names)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load %s snapshot for %q: %w", kind, graph, err)
	}
	if names == nil {
		names = []string{}
	}
	return names, true, nil
}

// Save replaces the snapshot for graph and kind.
func (s *BadgerStore) Save(graph string, kind Kind, names []string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(names); err != nil {
		return fmt.Errorf("failed to encode %s snapshot: %w", kind, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey(graph, kind), buf.Bytes())
	})
}

// Delete removes every snapshot of graph.
func (s *BadgerStore) Delete(graph string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}

	prefix := graphPrefix(graph)
	return s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		var keys [][]byte
		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Graphs lists the graphs that have at least one snapshot.
func (s *BadgerStore) Graphs() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	seen := make(map[string]bool)
	var graphs []string
	prefix := []byte(snapshotPrefix)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			rest := it.Item().Key()[len(prefix):]
			i := bytes.IndexByte(rest, 0)
			if i < 0 {
				continue
			}
			g := string(rest[:i])
			if !seen[g] {
				seen[g] = true
				graphs = append(graphs, g)
			}
		}
		return nil
	})
	return graphs, err
}

// Close releases the underlying database.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
