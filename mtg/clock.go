package mtg

import (
	"encoding/binary"
	"sync"
	"time"
)

const clockStorePropertyKey = "MTG:GROUP:CLOCK:MONOTONIC"

// Clock hands out strictly increasing times and persists the last one, so
// ledger epochs never go backwards across restarts.
type Clock struct {
	sync.Mutex
	store Store
	last  time.Time
}

func NewClock(store Store) (*Clock, error) {
	last, err := readTimeProperty(store, clockStorePropertyKey)
	if err != nil {
		return nil, err
	}
	return &Clock{store: store, last: last}, nil
}

func (c *Clock) Now() time.Time {
	c.Lock()
	defer c.Unlock()

	now := time.Now()
	if !now.After(c.last) {
		now = c.last.Add(time.Nanosecond)
	}
	c.last = now
	for writeTimeProperty(c.store, clockStorePropertyKey, now) != nil {
		time.Sleep(100 * time.Millisecond)
	}
	return now
}

func readTimeProperty(store Store, key string) (time.Time, error) {
	val, err := store.ReadProperty([]byte(key))
	if err != nil || len(val) != 8 {
		return time.Time{}, err
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(val))), nil
}

func writeTimeProperty(store Store, key string, ts time.Time) error {
	val := make([]byte, 8)
	binary.BigEndian.PutUint64(val, uint64(ts.UnixNano()))
	return store.WriteProperty([]byte(key), val)
}
