package store

import (
	"github.com/MixinNetwork/infinite/mtg"
	"github.com/dgraph-io/badger/v3"
)

const (
	prefixOutputPayload = "OUTPUT:PAYLOAD:"
	prefixOutputState   = "OUTPUT:STATE:"
)

func (bs *BadgerStore) WriteOutput(out *mtg.Output) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		return bs.writeOutput(txn, out)
	})
}

func (bs *BadgerStore) ReadOutput(id string) (*mtg.Output, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return bs.readOutput(txn, id)
}

func (bs *BadgerStore) ListOutputs(state int, limit int) ([]*mtg.Output, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	var outputs []*mtg.Output
	err := iterateTimed(txn, outputStatePrefix(state), limit, func(id string) error {
		out, err := bs.readOutput(txn, id)
		if err != nil {
			return err
		}
		outputs = append(outputs, out)
		return nil
	})
	return outputs, err
}

// writeOutput only moves an output forward, from pending to processed.
func (bs *BadgerStore) writeOutput(txn *badger.Txn, out *mtg.Output) error {
	old, err := bs.readOutput(txn, out.OutputId)
	if err != nil {
		return err
	}
	var oldKey []byte
	if old != nil {
		if old.State > out.State {
			panic(old.State)
		}
		oldKey = buildOutputTimedKey(old)
	}
	payload := []byte(prefixOutputPayload + out.OutputId)
	return writeTimed(txn, payload, out, oldKey, buildOutputTimedKey(out))
}

func (bs *BadgerStore) readOutput(txn *badger.Txn, id string) (*mtg.Output, error) {
	var out mtg.Output
	found, err := readPayload(txn, []byte(prefixOutputPayload+id), &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

func buildOutputTimedKey(out *mtg.Output) []byte {
	return timedKey(outputStatePrefix(out.State), out.CreatedAt, out.OutputId)
}

func outputStatePrefix(state int) string {
	prefix := prefixOutputState
	switch state {
	case mtg.OutputStatePending:
		return prefix + "pending"
	case mtg.OutputStateProcessed:
		return prefix + "handled"
	}
	panic(state)
}
