package ledger

import (
	"fmt"

	"github.com/MixinNetwork/mixin/crypto"
	"github.com/shopspring/decimal"
)

// Vault is the persistent counterpart of a bucket. Only its owner may take
// from it, anyone may put into it.
type Vault struct {
	tx  *Tx
	rec *VaultRecord
	res *Resource
}

// NewVault creates an empty vault owned by the current caller.
func (tx *Tx) NewVault(resource string) (*Vault, error) {
	r, err := tx.ReadResource(resource)
	if err != nil {
		return nil, err
	}
	rec := &VaultRecord{
		Id:       tx.derive("internal_vault", resource),
		Resource: r.Address,
		Owner:    tx.Caller(),
		Amount:   "0",
	}
	err = tx.state.WriteVault(rec)
	if err != nil {
		return nil, err
	}
	return tx.cacheVault(rec, r), nil
}

// LoadVault returns the same handle for every load of id in one
// transaction, so writes through any of them see each other.
func (tx *Tx) LoadVault(id string) (*Vault, error) {
	if v := tx.vaults[id]; v != nil {
		return v, nil
	}
	rec, err := tx.state.ReadVault(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrVaultNotFound, id)
	}
	r, err := tx.ReadResource(rec.Resource)
	if err != nil {
		return nil, err
	}
	return tx.cacheVault(rec, r), nil
}

func (tx *Tx) cacheVault(rec *VaultRecord, r *Resource) *Vault {
	v := &Vault{tx: tx, rec: rec, res: r}
	tx.vaults[rec.Id] = v
	return v
}

func (v *Vault) Id() string {
	return v.rec.Id
}

func (v *Vault) Resource() string {
	return v.rec.Resource
}

func (v *Vault) Owner() Actor {
	return v.rec.Owner
}

func (v *Vault) Amount() decimal.Decimal {
	if v.res.Kind == ResourceKindNonFungible {
		return decimal.NewFromInt(int64(len(v.rec.IDs)))
	}
	return parseAmount(v.rec.Amount)
}

func (v *Vault) IDs() []LocalID {
	return decodeLocalIDs(v.rec.IDs)
}

func (v *Vault) Contains(id LocalID) bool {
	return indexLocalID(v.IDs(), id) >= 0
}

func (v *Vault) Put(b *Bucket) error {
	if b.resource != v.rec.Resource {
		return fmt.Errorf("%w: put %s into vault of %s", ErrResourceMismatch, b.resource, v.rec.Resource)
	}
	amount, ids := b.Amount(), b.ids
	err := v.res.positiveAmount(amount)
	if err != nil {
		return err
	}
	if v.res.Kind == ResourceKindNonFungible {
		all := append(v.IDs(), ids...)
		sortLocalIDs(all)
		v.rec.IDs = encodeLocalIDs(all)
	} else {
		v.rec.Amount = v.Amount().Add(amount).String()
	}
	err = v.tx.state.WriteVault(v.rec)
	if err != nil {
		return err
	}
	v.tx.emit(EventDeposit, v.rec.Resource, v.rec, amount, ids)
	b.amount, b.ids = decimal.Zero, nil
	return nil
}

func (v *Vault) Take(amount decimal.Decimal) (*Bucket, error) {
	err := v.authorize()
	if err != nil {
		return nil, err
	}
	err = v.res.validAmount(amount)
	if err != nil {
		return nil, err
	}
	if v.Amount().Cmp(amount) < 0 {
		return nil, fmt.Errorf("%w: vault %s has %s, requested %s", ErrInsufficientBalance, v.rec.Id, v.Amount(), amount)
	}
	b := v.tx.newBucket(v.res)
	if v.res.Kind == ResourceKindNonFungible {
		ids := v.IDs()
		n := int(amount.IntPart())
		b.ids = ids[:n]
		v.rec.IDs = encodeLocalIDs(ids[n:])
	} else {
		b.amount = amount
		v.rec.Amount = v.Amount().Sub(amount).String()
	}
	if amount.Sign() == 0 {
		return b, nil
	}
	v.tx.emit(EventWithdraw, v.rec.Resource, v.rec, amount, b.ids)
	return b, v.tx.state.WriteVault(v.rec)
}

func (v *Vault) TakeNonFungible(id LocalID) (*Bucket, error) {
	err := v.authorize()
	if err != nil {
		return nil, err
	}
	if v.res.Kind != ResourceKindNonFungible {
		return nil, fmt.Errorf("%w: %s is fungible", ErrResourceMismatch, v.rec.Resource)
	}
	ids := v.IDs()
	i := indexLocalID(ids, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s not in vault %s", ErrNonFungibleNotFound, id, v.rec.Id)
	}
	v.rec.IDs = encodeLocalIDs(append(ids[:i:i], ids[i+1:]...))
	err = v.tx.state.WriteVault(v.rec)
	if err != nil {
		return nil, err
	}
	b := v.tx.newBucket(v.res)
	b.ids = []LocalID{id}
	v.tx.emit(EventWithdraw, v.rec.Resource, v.rec, decimal.NewFromInt(1), b.ids)
	return b, nil
}

func (v *Vault) authorize() error {
	owner := v.rec.Owner
	switch owner.Kind {
	case ActorComponent:
		if v.tx.Caller() == owner {
			return nil
		}
	case ActorAccount, ActorSystem:
		if v.tx.signer == owner || v.tx.signer.Kind == ActorSystem {
			return nil
		}
	}
	return fmt.Errorf("%w: vault %s of %s by %s", ErrUnauthorized, v.rec.Id, owner, v.tx.Caller())
}

// AccountVault returns the vault of account for resource, creating it on
// first use.
func (tx *Tx) AccountVault(account, resource string) (*Vault, error) {
	r, err := tx.ReadResource(resource)
	if err != nil {
		return nil, err
	}
	id := "account_vault_" + crypto.NewHash([]byte(account+":"+resource)).String()
	if v := tx.vaults[id]; v != nil {
		return v, nil
	}
	rec, err := tx.state.ReadVault(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &VaultRecord{
			Id:       id,
			Resource: r.Address,
			Owner:    Account(account),
			Amount:   "0",
		}
		if !tx.readonly {
			err = tx.state.WriteVault(rec)
		}
		if err != nil {
			return nil, err
		}
	}
	return tx.cacheVault(rec, r), nil
}

func (tx *Tx) Deposit(account string, b *Bucket) error {
	v, err := tx.AccountVault(account, b.resource)
	if err != nil {
		return err
	}
	return v.Put(b)
}

func (tx *Tx) Withdraw(account, resource string, amount decimal.Decimal) (*Bucket, error) {
	v, err := tx.AccountVault(account, resource)
	if err != nil {
		return nil, err
	}
	return v.Take(amount)
}

func (tx *Tx) WithdrawNonFungible(account, resource string, id LocalID) (*Bucket, error) {
	v, err := tx.AccountVault(account, resource)
	if err != nil {
		return nil, err
	}
	return v.TakeNonFungible(id)
}
