package privacy

import (
	"log/slog"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/badger/v2"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a dataset has no stored privacy schema.
var ErrNotFound = errors.New("privacy schema not found")

// Store persists privacy schemas keyed by dataset name. Schemas are written
// by the curator when a dataset is registered and read once per session;
// the engine treats whatever it loads as immutable.
type Store interface {
	Put(dataset string, schema *Schema) error
	Get(dataset string) (*Schema, error)
	Delete(dataset string) error
	Close() error
}

type InMemoryStore struct {
	mu      sync.Mutex
	schemas map[string][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{schemas: make(map[string][]byte)}
}

func (s *InMemoryStore) Put(dataset string, schema *Schema) error {
	buf, err := yaml.Marshal(schema)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[dataset] = buf
	return nil
}

func (s *InMemoryStore) Get(dataset string) (*Schema, error) {
	s.mu.Lock()
	buf, ok := s.schemas[dataset]
	s.mu.Unlock()
	if !ok {
		return nil, errors.Mark(
			errors.Newf("no privacy schema for dataset %q", dataset),
			ErrNotFound)
	}
	return Parse(buf)
}

func (s *InMemoryStore) Delete(dataset string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.schemas, dataset)
	return nil
}

func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas = nil
	return nil
}

var keyPrefix = []byte("privacy/")

func storeKey(dataset string) []byte {
	return append(append([]byte{}, keyPrefix...), dataset...)
}

// BadgerStore keeps privacy schemas in a badger database as yaml values.
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger
}

func NewBadgerStore(db *badger.DB, logger *slog.Logger) *BadgerStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerStore{db: db, logger: logger}
}

// TestBadgerDB opens a throwaway in-memory badger instance.
func TestBadgerDB() *badger.DB {
	option := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(option)
	if err != nil {
		panic(err)
	}
	return db
}

func (s *BadgerStore) Put(dataset string, schema *Schema) error {
	buf, err := yaml.Marshal(schema)
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storeKey(dataset), buf)
	})
	if err != nil {
		return err
	}
	s.logger.Info("stored privacy schema",
		"dataset", dataset, "columns", len(schema.Columns))
	return nil
}

func (s *BadgerStore) Get(dataset string) (*Schema, error) {
	var buf []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storeKey(dataset))
		if err != nil {
			return err
		}
		buf, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.Mark(
			errors.Newf("no privacy schema for dataset %q", dataset),
			ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return Parse(buf)
}

func (s *BadgerStore) Delete(dataset string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(storeKey(dataset))
	})
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
