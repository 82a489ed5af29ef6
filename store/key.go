package store

import (
	"encoding/binary"
	"time"

	"github.com/MixinNetwork/mixin/common"
	"github.com/dgraph-io/badger/v3"
)

// timedKey orders the ids under prefix by ts, the id follows the 8 byte
// big endian nanoseconds.
func timedKey(prefix string, ts time.Time, id string) []byte {
	key := make([]byte, len(prefix)+8+len(id))
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], uint64(ts.UnixNano()))
	copy(key[len(prefix)+8:], id)
	return key
}

// iterateTimed calls fn with at most limit ids under prefix in time order.
func iterateTimed(txn *badger.Txn, prefix string, limit int, fn func(id string) error) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	visited := 0
	for it.Seek(opts.Prefix); it.Valid() && visited < limit; it.Next() {
		key := it.Item().Key()
		err := fn(string(key[len(prefix)+8:]))
		if err != nil {
			return err
		}
		visited++
	}
	return nil
}

// writeTimed stores the msgpack payload of v and moves its state index from
// old to key, old is nil for a new record.
func writeTimed(txn *badger.Txn, payload []byte, v interface{}, old, key []byte) error {
	if old != nil {
		err := txn.Delete(old)
		if err != nil {
			return err
		}
	}
	err := txn.Set(payload, common.MsgpackMarshalPanic(v))
	if err != nil {
		return err
	}
	return txn.Set(key, []byte{1})
}
