package storage

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/triedb"
)

// Database is the key-value backend the ledger state is persisted to. The
// TrieDB handle is shared with the state trie so trie commits and raw metadata
// writes land in the same backing store.
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	TrieDB() *triedb.Database
	Close()
}

// MemDB keeps everything in memory. Used by tests and ephemeral tooling.
type MemDB struct {
	mu     sync.RWMutex
	kv     map[string][]byte
	trieDB *triedb.Database
}

func NewMemDB() *MemDB {
	backend := rawdb.NewDatabase(memorydb.New())
	return &MemDB{
		kv:     make(map[string][]byte),
		trieDB: triedb.NewDatabase(backend, triedb.HashDefaults),
	}
}

func (db *MemDB) Put(key []byte, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.kv[string(key)] = append([]byte(nil), value...)
	return nil
}

func (db *MemDB) Get(key []byte) ([]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	value, ok := db.kv[string(key)]
	if !ok {
		return nil, fmt.Errorf("key not found")
	}
	return value, nil
}

func (db *MemDB) TrieDB() *triedb.Database { return db.trieDB }

// Close satisfies the Database interface for MemDB.
func (db *MemDB) Close() {}

// DiskDB is the persistent backend used by the daemon, layered on LevelDB.
type DiskDB struct {
	store  ethdb.Database
	trieDB *triedb.Database
}

// NewDiskDB creates or opens a LevelDB database at the specified path.
func NewDiskDB(path string) (*DiskDB, error) {
	kv, err := leveldb.New(path, 128, 256, "ecochain", false)
	if err != nil {
		return nil, err
	}
	store := rawdb.NewDatabase(kv)
	return &DiskDB{
		store:  store,
		trieDB: triedb.NewDatabase(store, triedb.HashDefaults),
	}, nil
}

func (db *DiskDB) Put(key []byte, value []byte) error {
	return db.store.Put(key, value)
}

func (db *DiskDB) Get(key []byte) ([]byte, error) {
	return db.store.Get(key)
}

func (db *DiskDB) TrieDB() *triedb.Database { return db.trieDB }

func (db *DiskDB) Close() {
	db.trieDB.Close()
	db.store.Close()
}
