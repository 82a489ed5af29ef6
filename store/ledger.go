package store

import (
	"github.com/MixinNetwork/infinite/ledger"
	"github.com/MixinNetwork/mixin/common"
	"github.com/dgraph-io/badger/v3"
)

const (
	prefixLedgerResource    = "LEDGER:RESOURCE:"
	prefixLedgerNonFungible = "LEDGER:NONFUNGIBLE:"
	prefixLedgerVault       = "LEDGER:VAULT:"
	prefixLedgerComponent   = "LEDGER:COMPONENT:"
	prefixLedgerReceipt     = "LEDGER:RECEIPT:"
)

// UpdateLedger maps one ledger transaction to one badger transaction, so a
// failed fn leaves nothing behind.
func (bs *BadgerStore) UpdateLedger(fn func(ledger.State) error) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		return fn(&ledgerState{txn: txn})
	})
}

func (bs *BadgerStore) ViewLedger(fn func(ledger.State) error) error {
	return bs.db.View(func(txn *badger.Txn) error {
		return fn(&ledgerState{txn: txn})
	})
}

type ledgerState struct {
	txn *badger.Txn
}

func (s *ledgerState) ReadProperty(key []byte) ([]byte, error) {
	return readProperty(s.txn, key)
}

func (s *ledgerState) WriteProperty(key, val []byte) error {
	return s.txn.Set(key, val)
}

func (s *ledgerState) ReadResource(address string) (*ledger.Resource, error) {
	var r ledger.Resource
	found, err := readPayload(s.txn, []byte(prefixLedgerResource+address), &r)
	if err != nil || !found {
		return nil, err
	}
	return &r, nil
}

func (s *ledgerState) WriteResource(r *ledger.Resource) error {
	key := []byte(prefixLedgerResource + r.Address)
	return s.txn.Set(key, common.MsgpackMarshalPanic(r))
}

func (s *ledgerState) ReadNonFungible(resource string, id ledger.LocalID) (*ledger.NonFungible, error) {
	var nf ledger.NonFungible
	found, err := readPayload(s.txn, nonFungibleKey(resource, id), &nf)
	if err != nil || !found {
		return nil, err
	}
	return &nf, nil
}

func (s *ledgerState) WriteNonFungible(nf *ledger.NonFungible) error {
	key := nonFungibleKey(nf.Resource, nf.Id)
	return s.txn.Set(key, common.MsgpackMarshalPanic(nf))
}

func (s *ledgerState) DeleteNonFungible(resource string, id ledger.LocalID) error {
	return s.txn.Delete(nonFungibleKey(resource, id))
}

func (s *ledgerState) ReadVault(id string) (*ledger.VaultRecord, error) {
	var v ledger.VaultRecord
	found, err := readPayload(s.txn, []byte(prefixLedgerVault+id), &v)
	if err != nil || !found {
		return nil, err
	}
	return &v, nil
}

func (s *ledgerState) WriteVault(v *ledger.VaultRecord) error {
	key := []byte(prefixLedgerVault + v.Id)
	return s.txn.Set(key, common.MsgpackMarshalPanic(v))
}

func (s *ledgerState) ReadComponent(address string) (*ledger.ComponentRecord, error) {
	var c ledger.ComponentRecord
	found, err := readPayload(s.txn, []byte(prefixLedgerComponent+address), &c)
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

func (s *ledgerState) WriteComponent(c *ledger.ComponentRecord) error {
	key := []byte(prefixLedgerComponent + c.Address)
	return s.txn.Set(key, common.MsgpackMarshalPanic(c))
}

func (s *ledgerState) ReadReceipt(id string) (*ledger.Receipt, error) {
	var r ledger.Receipt
	found, err := readPayload(s.txn, []byte(prefixLedgerReceipt+id), &r)
	if err != nil || !found {
		return nil, err
	}
	return &r, nil
}

func (s *ledgerState) WriteReceipt(r *ledger.Receipt) error {
	key := []byte(prefixLedgerReceipt + r.Id)
	return s.txn.Set(key, common.MsgpackMarshalPanic(r))
}

func nonFungibleKey(resource string, id ledger.LocalID) []byte {
	key := prefixLedgerNonFungible + resource + ":" + id.String()
	return []byte(key)
}
