package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Bucket holds assets of one resource for the duration of a transaction.
// A transaction only commits when all its buckets end up empty.
type Bucket struct {
	resource     string
	kind         int
	divisibility int
	amount       decimal.Decimal
	ids          []LocalID
	tx           *Tx
}

func (tx *Tx) newBucket(r *Resource) *Bucket {
	b := &Bucket{
		resource:     r.Address,
		kind:         r.Kind,
		divisibility: r.Divisibility,
		amount:       decimal.Zero,
		tx:           tx,
	}
	tx.buckets = append(tx.buckets, b)
	return b
}

func (b *Bucket) Resource() string {
	return b.resource
}

func (b *Bucket) Amount() decimal.Decimal {
	if b.kind == ResourceKindNonFungible {
		return decimal.NewFromInt(int64(len(b.ids)))
	}
	return b.amount
}

func (b *Bucket) IDs() []LocalID {
	return append([]LocalID{}, b.ids...)
}

func (b *Bucket) IsEmpty() bool {
	return b.Amount().Sign() == 0
}

func (b *Bucket) Take(amount decimal.Decimal) (*Bucket, error) {
	err := b.validAmount(amount)
	if err != nil {
		return nil, err
	}
	if b.Amount().Cmp(amount) < 0 {
		return nil, fmt.Errorf("%w: bucket %s has %s, requested %s", ErrInsufficientBalance, b.resource, b.Amount(), amount)
	}
	nb := b.split()
	if b.kind == ResourceKindNonFungible {
		n := int(amount.IntPart())
		nb.ids = append(nb.ids, b.ids[:n]...)
		b.ids = append([]LocalID{}, b.ids[n:]...)
		return nb, nil
	}
	nb.amount = amount
	b.amount = b.amount.Sub(amount)
	return nb, nil
}

func (b *Bucket) TakeNonFungible(id LocalID) (*Bucket, error) {
	if b.kind != ResourceKindNonFungible {
		return nil, fmt.Errorf("%w: %s is fungible", ErrResourceMismatch, b.resource)
	}
	i := indexLocalID(b.ids, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s not in bucket", ErrNonFungibleNotFound, id)
	}
	nb := b.split()
	nb.ids = []LocalID{id}
	b.ids = append(b.ids[:i:i], b.ids[i+1:]...)
	return nb, nil
}

func (b *Bucket) Put(other *Bucket) error {
	if other.resource != b.resource {
		return fmt.Errorf("%w: put %s into bucket of %s", ErrResourceMismatch, other.resource, b.resource)
	}
	b.amount = b.amount.Add(other.amount)
	b.ids = append(b.ids, other.ids...)
	sortLocalIDs(b.ids)
	other.amount, other.ids = decimal.Zero, nil
	return nil
}

func (b *Bucket) split() *Bucket {
	nb := &Bucket{
		resource:     b.resource,
		kind:         b.kind,
		divisibility: b.divisibility,
		amount:       decimal.Zero,
		tx:           b.tx,
	}
	b.tx.buckets = append(b.tx.buckets, nb)
	return nb
}

func (b *Bucket) validAmount(amount decimal.Decimal) error {
	r := &Resource{Address: b.resource, Kind: b.kind, Divisibility: b.divisibility}
	return r.validAmount(amount)
}
