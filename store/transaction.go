package store

import (
	"github.com/MixinNetwork/infinite/mtg"
	"github.com/dgraph-io/badger/v3"
)

const (
	prefixTransactionPayload = "TRANSACTION:PAYLOAD:"
	prefixTransactionState   = "TRANSACTION:STATE:"
)

func (bs *BadgerStore) WriteTransaction(tx *mtg.Transaction) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		old, err := bs.readTransaction(txn, tx.TraceId)
		if err != nil {
			return err
		}
		var oldKey []byte
		if old != nil {
			if old.State > tx.State {
				panic(old.State)
			}
			oldKey = buildTransactionTimedKey(old)
		}
		payload := []byte(prefixTransactionPayload + tx.TraceId)
		return writeTimed(txn, payload, tx, oldKey, buildTransactionTimedKey(tx))
	})
}

func (bs *BadgerStore) ReadTransaction(traceId string) (*mtg.Transaction, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return bs.readTransaction(txn, traceId)
}

// ListTransactions lists transfers in state, oldest update first.
func (bs *BadgerStore) ListTransactions(state int, limit int) ([]*mtg.Transaction, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	var txs []*mtg.Transaction
	err := iterateTimed(txn, transactionStatePrefix(state), limit, func(traceId string) error {
		tx, err := bs.readTransaction(txn, traceId)
		if err != nil {
			return err
		}
		txs = append(txs, tx)
		return nil
	})
	return txs, err
}

func (bs *BadgerStore) readTransaction(txn *badger.Txn, traceId string) (*mtg.Transaction, error) {
	var tx mtg.Transaction
	found, err := readPayload(txn, []byte(prefixTransactionPayload+traceId), &tx)
	if err != nil || !found {
		return nil, err
	}
	return &tx, nil
}

func buildTransactionTimedKey(tx *mtg.Transaction) []byte {
	return timedKey(transactionStatePrefix(tx.State), tx.UpdatedAt, tx.TraceId)
}

var transactionStates = map[int]string{
	mtg.TransactionStateInitial:  "initial",
	mtg.TransactionStateSnapshot: "snapshot",
}

func transactionStatePrefix(state int) string {
	name, ok := transactionStates[state]
	if !ok {
		panic(state)
	}
	return prefixTransactionState + name
}
