package birch

import (
	"time"
)

// --------------------------------------------------------------------------
// Background Sweeper
// --------------------------------------------------------------------------

// sweeper is the main loop of the background sweeper.
// WARNING: this method should never be called directly! It is started by NewBirchDB and stopped by Close.
//
// Each iteration drains all due hints, then sleeps until the earliest pending deadline,
// or for the sweep interval if nothing is scheduled. A put with an earlier deadline
// and Close both cut the sleep short.
//
// Thread-safety: This function is not thread-safe!
func (birch *birchImpl) sweeper() {
	defer birch.sweeperDone.Done()

	plog.Infof("sweeper started (interval %s)", birch.sweepInterval)
	defer plog.Infof("sweeper stopped")

	timer := time.NewTimer(birch.sweepInterval)
	defer timer.Stop()

	for {
		if birch.stopped() {
			return
		}

		wait, ok := birch.drain()
		if !ok {
			return
		}

		// reset timeout
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-birch.stop:
			return
		case <-birch.wake:
		case <-timer.C:
		}
	}
}

// drain pops and processes hints until the earliest one is not due anymore.
// It returns how long the sweeper should sleep, ok is false if the database was
// closed while draining.
func (birch *birchImpl) drain() (wait time.Duration, ok bool) {
	for {
		if birch.stopped() {
			return 0, false
		}

		now := time.Now()
		node, due, pending := birch.scheduler.PopDue(now)

		switch {
		case due:
			/*
				The scheduler lock is already released here. The hint is only a hint: the key
				may have been rewritten (new version), erased or cleared since it was scheduled.
				eraseExpired re-validates against the live entry under the write lock.
			*/
			if birch.eraseExpired(node.Key, node.Version, now) {
				birch.stats.sweeperDeletes.Inc()
				plog.Debugf("swept expired key %q (version %d)", node.Key, node.Version)
			} else {
				birch.stats.staleNodes.Inc()
			}
		case pending:
			return node.Deadline.Sub(now), true
		default:
			return birch.sweepInterval, true
		}
	}
}

// stopped reports whether Close was called
func (birch *birchImpl) stopped() bool {
	select {
	case <-birch.stop:
		return true
	default:
		return false
	}
}
