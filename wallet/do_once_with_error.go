package wallet

import (
	"sync"
	"sync/atomic"
)

// onceWithErr runs f until it succeeds once. A failed f leaves the once armed so
// the next caller retries; used to load the directory lazily on first access.
type onceWithErr struct {
	done uint32
	m    sync.Mutex
}

func (o *onceWithErr) Do(f func() error) error {
	if atomic.LoadUint32(&o.done) == 1 {
		return nil
	}

	o.m.Lock()
	defer o.m.Unlock()
	if o.done == 1 {
		return nil
	}

	if err := f(); err != nil {
		return err
	}
	atomic.StoreUint32(&o.done, 1)
	return nil
}
