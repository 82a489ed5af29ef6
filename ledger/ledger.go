package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MixinNetwork/mixin/common"
	"github.com/MixinNetwork/mixin/crypto"
	"github.com/MixinNetwork/mixin/logger"
	"github.com/shopspring/decimal"
)

const (
	EpochDuration = 5 * time.Minute

	NativeResource     = "resource_native_xrd"
	NativeDivisibility = 8
	nativeGenesisTxId  = "LEDGER:GENESIS:NATIVE"
)

type Ledger struct {
	store   Store
	clock   Clock
	genesis time.Time
}

func New(store Store, clock Clock, genesis time.Time) *Ledger {
	return &Ledger{
		store:   store,
		clock:   clock,
		genesis: genesis,
	}
}

func (l *Ledger) Epoch(ts time.Time) uint64 {
	if ts.Before(l.genesis) {
		return 0
	}
	return uint64(ts.Sub(l.genesis) / EpochDuration)
}

// Transact runs fn as one atomic transaction signed by signer. Any error,
// including a bucket left non empty, discards every write of fn. A receipt
// is stored under id, and a second transaction with the same id returns
// that receipt together with ErrAlreadyCommitted.
func (l *Ledger) Transact(ctx context.Context, id string, signer Actor, fn func(tx *Tx) error) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("empty transaction id")
	}
	now := l.clock.Now()
	var receipt *Receipt
	err := l.store.UpdateLedger(func(state State) error {
		old, err := state.ReadReceipt(id)
		if err != nil {
			return err
		}
		if old != nil {
			receipt = old
			return ErrAlreadyCommitted
		}
		tx := l.newTx(state, id, signer, now)
		err = fn(tx)
		if err != nil {
			return err
		}
		err = tx.finalize()
		if err != nil {
			return err
		}
		receipt = &Receipt{
			Id:        id,
			Signer:    signer,
			Epoch:     tx.epoch,
			Events:    tx.events,
			CreatedAt: now,
		}
		return state.WriteReceipt(receipt)
	})
	if errors.Is(err, ErrAlreadyCommitted) {
		return receipt, err
	} else if err != nil {
		logger.Verbosef("Ledger.Transact(%s, %s) => %v\n", id, signer, err)
		return nil, err
	}
	logger.Verbosef("Ledger.Transact(%s, %s) => %d events\n", id, signer, len(receipt.Events))
	return receipt, nil
}

// View runs fn against a read only snapshot of the ledger.
func (l *Ledger) View(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := l.clock.Now()
	return l.store.ViewLedger(func(state State) error {
		tx := l.newTx(state, "", System, now)
		tx.readonly = true
		return fn(tx)
	})
}

func (l *Ledger) ReadReceipt(ctx context.Context, id string) (*Receipt, error) {
	var receipt *Receipt
	err := l.store.ViewLedger(func(state State) error {
		r, err := state.ReadReceipt(id)
		receipt = r
		return err
	})
	return receipt, err
}

// Bootstrap creates the native fungible resource that mirrors the payment
// asset. Only the system signer may mint or burn it.
func (l *Ledger) Bootstrap(ctx context.Context, symbol string) error {
	_, err := l.Transact(ctx, nativeGenesisTxId, System, func(tx *Tx) error {
		metadata := []*Metadata{
			{Key: "name", Value: "Native " + symbol, Locked: true},
			{Key: "symbol", Value: symbol, Locked: true},
		}
		roles := map[string]*RoleAssignment{
			RoleMinter: Locked(RequireSystem()),
			RoleBurner: Locked(RequireSystem()),
		}
		_, _, err := tx.createFungibleResource(NativeResource, NativeDivisibility, metadata, roles, decimal.Zero)
		return err
	})
	if errors.Is(err, ErrAlreadyCommitted) {
		return nil
	}
	return err
}

type Tx struct {
	state    State
	id       string
	signer   Actor
	frames   []Actor
	buckets  []*Bucket
	vaults   map[string]*Vault
	events   []*Event
	epoch    uint64
	now      time.Time
	nonce    int
	readonly bool
}

func (l *Ledger) newTx(state State, id string, signer Actor, now time.Time) *Tx {
	return &Tx{
		state:  state,
		id:     id,
		signer: signer,
		vaults: make(map[string]*Vault),
		epoch:  l.Epoch(now),
		now:    now,
	}
}

func (tx *Tx) Id() string {
	return tx.id
}

func (tx *Tx) Epoch() uint64 {
	return tx.epoch
}

func (tx *Tx) Now() time.Time {
	return tx.now
}

func (tx *Tx) Signer() Actor {
	return tx.signer
}

// Caller is the innermost component frame, or the signer outside of any
// component call.
func (tx *Tx) Caller() Actor {
	if n := len(tx.frames); n > 0 {
		return tx.frames[n-1]
	}
	return tx.signer
}

// Call runs fn with component as the global caller.
func (tx *Tx) Call(component string, fn func() error) error {
	tx.frames = append(tx.frames, Component(component))
	defer func() {
		tx.frames = tx.frames[:len(tx.frames)-1]
	}()
	return fn()
}

// AllocateComponentAddress reserves the address of a component that will
// be written later in the same transaction.
func (tx *Tx) AllocateComponentAddress(blueprint string) string {
	return tx.derive("component", blueprint)
}

func (tx *Tx) WriteComponent(address, blueprint string, state interface{}) error {
	old, err := tx.state.ReadComponent(address)
	if err != nil {
		return err
	}
	c := &ComponentRecord{
		Address:   address,
		Blueprint: blueprint,
		State:     common.MsgpackMarshalPanic(state),
		CreatedAt: tx.now,
	}
	if old != nil {
		if old.Blueprint != blueprint {
			return fmt.Errorf("component %s blueprint %s", address, old.Blueprint)
		}
		c.CreatedAt = old.CreatedAt
	}
	return tx.state.WriteComponent(c)
}

func (tx *Tx) ReadComponent(address string, state interface{}) (string, error) {
	c, err := tx.state.ReadComponent(address)
	if err != nil {
		return "", err
	}
	if c == nil {
		return "", fmt.Errorf("%w: %s", ErrComponentNotFound, address)
	}
	return c.Blueprint, common.MsgpackUnmarshal(c.State, state)
}

func (tx *Tx) ReadProperty(key string) (string, error) {
	val, err := tx.state.ReadProperty([]byte(key))
	return string(val), err
}

func (tx *Tx) WriteProperty(key, val string) error {
	return tx.state.WriteProperty([]byte(key), []byte(val))
}

func (tx *Tx) derive(kind, salt string) string {
	if tx.readonly {
		panic(kind)
	}
	tx.nonce += 1
	seed := fmt.Sprintf("%s:%s:%s:%d", tx.id, kind, salt, tx.nonce)
	return kind + "_" + crypto.NewHash([]byte(seed)).String()
}

func (tx *Tx) emit(kind, resource string, vault *VaultRecord, amount decimal.Decimal, ids []LocalID) {
	e := &Event{
		Kind:     kind,
		Resource: resource,
		Amount:   amount.String(),
		IDs:      encodeLocalIDs(ids),
	}
	if vault != nil {
		e.Vault = vault.Id
		e.Owner = vault.Owner
	}
	tx.events = append(tx.events, e)
}

func (tx *Tx) finalize() error {
	for _, b := range tx.buckets {
		if !b.IsEmpty() {
			return fmt.Errorf("%w: %s %s", ErrBucketNotEmpty, b.resource, b.Amount())
		}
	}
	return nil
}
