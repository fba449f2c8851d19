package lockmgr

import (
	"github.com/ValentinKolb/ttlkv/lib/store"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
	"time"
)

var plog = logger.GetLogger("lockmgr")

type lockMgrImpl struct {
	store store.IStore
}

func NewLockManager(store store.IStore) ILockManager {
	return &lockMgrImpl{
		store: store,
	}
}

// generateOwnerID creates a new unique owner ID (the textual form of a random UUID)
func generateOwnerID() []byte {
	return []byte(uuid.NewString())
}

func (lm *lockMgrImpl) AcquireLock(key string, timeout time.Duration) (bool, []byte, error) {
	ownerID := generateOwnerID()

	// Try to acquire the lock (by setting the value only if no live value exists - atomic operation)
	acquired, err := lm.store.PutIfAbsent(key, ownerID, timeout)
	if err != nil {
		plog.Warningf("acquiring lock %q failed: %v", key, err)
		return false, nil, err
	}

	// Return false if the lock is held BY SOMEONE ELSE
	if !acquired {
		return false, nil, nil
	}

	plog.Debugf("lock %q acquired by %s (timeout %s)", key, ownerID, timeout)
	return true, ownerID, nil
}

func (lm *lockMgrImpl) ReleaseLock(key string, ownerID []byte) (bool, error) {
	// Check if the lock exists
	_, ok, err := lm.store.Get(key)
	if err != nil || !ok {
		return err == nil, err
	}

	// Release the lock only if it is owned by us
	released, err := lm.store.CompareAndErase(key, ownerID)
	if err != nil {
		plog.Warningf("releasing lock %q failed: %v", key, err)
		return false, err
	}

	if released {
		plog.Debugf("lock %q released by %s", key, ownerID)
	}
	return released, nil
}
