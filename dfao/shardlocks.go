package dfao

import "sync"

// numShards must be a power of two for the mask below.
const numShards = 256

// shardLocks spreads pixel-level contention across a fixed pool of mutexes,
// giving the additive splat blend its "concurrent writes are summed, never
// overwritten" guarantee without one lock per pixel.
type shardLocks struct{ mu [numShards]sync.Mutex }

func (sl *shardLocks) lock(idx int)   { sl.mu[idx&(numShards-1)].Lock() }
func (sl *shardLocks) unlock(idx int) { sl.mu[idx&(numShards-1)].Unlock() }
