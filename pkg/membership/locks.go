package membership

import (
	"sync"

	"github.com/platinummonkey/roster/pkg/repository"
)

// lockSet holds one RWMutex per collection. Locks are always taken in
// repository.AllCollections order and released in reverse.
type lockSet struct {
	mu map[repository.Collection]*sync.RWMutex
}

func newLockSet() *lockSet {
	ls := &lockSet{mu: make(map[repository.Collection]*sync.RWMutex, len(repository.AllCollections))}
	for _, c := range repository.AllCollections {
		ls.mu[c] = &sync.RWMutex{}
	}
	return ls
}

// acquire write-locks the collections in write and read-locks the rest. The
// returned func releases everything.
func (ls *lockSet) acquire(write []repository.Collection) func() {
	writeSet := make(map[repository.Collection]bool, len(write))
	for _, c := range write {
		writeSet[c] = true
	}

	for _, c := range repository.AllCollections {
		if writeSet[c] {
			ls.mu[c].Lock()
		} else {
			ls.mu[c].RLock()
		}
	}

	return func() {
		for i := len(repository.AllCollections) - 1; i >= 0; i-- {
			c := repository.AllCollections[i]
			if writeSet[c] {
				ls.mu[c].Unlock()
			} else {
				ls.mu[c].RUnlock()
			}
		}
	}
}
