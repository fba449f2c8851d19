package lstore

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/ttlkv/lib/db"
	"github.com/ValentinKolb/ttlkv/lib/store"
)

type storeImpl struct {
	db     db.KVDB
	closed atomic.Bool
}

// NewLocalStore creates a new local store instance.
// This store implementation only works inside a single process.
// The error of the factory is returned as is.
func NewLocalStore(factory store.DBFactory) (store.IStore, error) {
	database, err := factory()
	if err != nil {
		return nil, err
	}
	return &storeImpl{
		db: database,
	}, nil
}

// check verifies that the store is open and the database supports the feature.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (s *storeImpl) check(feature db.Feature, op string) error {
	if s.closed.Load() {
		return store.NewError(store.RetCClosed, fmt.Sprintf("%s operation on closed store", op))
	}
	if !s.db.SupportsFeature(feature) {
		return store.NewError(store.RetCUnsupportedOperation, fmt.Sprintf("%s operation is not supported", op))
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Put(key string, value []byte, ttl time.Duration) error {
	feature := db.FeaturePut
	if ttl > 0 {
		feature |= db.FeaturePutTTL
	}
	if err := s.check(feature, "Put"); err != nil {
		return err
	}
	s.db.Put(key, value, ttl)
	return nil
}

func (s *storeImpl) PutIfAbsent(key string, value []byte, ttl time.Duration) (bool, error) {
	if err := s.check(db.FeaturePutIfAbsent, "PutIfAbsent"); err != nil {
		return false, err
	}
	return s.db.PutIfAbsent(key, value, ttl), nil
}

func (s *storeImpl) Erase(key string) (bool, error) {
	if err := s.check(db.FeatureErase, "Erase"); err != nil {
		return false, err
	}
	return s.db.Erase(key), nil
}

func (s *storeImpl) CompareAndErase(key string, expected []byte) (bool, error) {
	if err := s.check(db.FeatureCompareAndErase, "CompareAndErase"); err != nil {
		return false, err
	}
	return s.db.CompareAndErase(key, expected), nil
}

func (s *storeImpl) Clear() error {
	if err := s.check(db.FeatureClear, "Clear"); err != nil {
		return err
	}
	s.db.Clear()
	return nil
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	if err := s.check(db.FeatureGet, "Get"); err != nil {
		return nil, false, err
	}
	val, ok := s.db.Get(key)
	return val, ok, nil
}

func (s *storeImpl) PrefixGet(prefix string, limit int) ([]db.KV, error) {
	if err := s.check(db.FeaturePrefixGet, "PrefixGet"); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, store.NewError(store.RetCInvalidOperation, fmt.Sprintf("negative limit %d", limit))
	}
	return s.db.PrefixGet(prefix, limit), nil
}

func (s *storeImpl) Size() (int, error) {
	if s.closed.Load() {
		return 0, store.NewError(store.RetCClosed, "Size operation on closed store")
	}
	return s.db.Size(), nil
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	if s.closed.Load() {
		return db.DatabaseInfo{}, store.NewError(store.RetCClosed, "GetDBInfo operation on closed store")
	}
	return s.db.GetInfo(), nil
}

func (s *storeImpl) WriteMetrics(w io.Writer) error {
	if s.closed.Load() {
		return store.NewError(store.RetCClosed, "WriteMetrics operation on closed store")
	}
	s.db.WriteMetrics(w)
	return nil
}

func (s *storeImpl) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return store.NewError(store.RetCClosed, "store already closed")
	}
	if err := s.db.Close(); err != nil {
		return store.NewError(store.RetCInternalError, err.Error())
	}
	return nil
}
