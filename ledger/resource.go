package ledger

import (
	"fmt"
	"time"

	"github.com/MixinNetwork/mixin/common"
	"github.com/shopspring/decimal"
)

const (
	ResourceKindFungible    = 1
	ResourceKindNonFungible = 2
)

type Metadata struct {
	Key    string
	Value  string
	Locked bool
}

type Resource struct {
	Address      string
	Kind         int
	Divisibility int
	Metadata     []*Metadata
	Roles        map[string]*RoleAssignment
	TotalSupply  string
	CreatedAt    time.Time
}

func (r *Resource) MetadataValue(key string) (string, bool) {
	for _, m := range r.Metadata {
		if m.Key == key {
			return m.Value, true
		}
	}
	return "", false
}

func (r *Resource) Name() string {
	name, _ := r.MetadataValue("name")
	return name
}

func (r *Resource) Supply() decimal.Decimal {
	return parseAmount(r.TotalSupply)
}

func (r *Resource) Role(name string) *RoleAssignment {
	if ra := r.Roles[name]; ra != nil {
		return ra
	}
	return Locked(DenyAll())
}

func (r *Resource) validAmount(amt decimal.Decimal) error {
	if amt.Sign() < 0 {
		return fmt.Errorf("%w: negative %s", ErrInvalidAmount, amt)
	}
	div := int32(r.Divisibility)
	if r.Kind == ResourceKindNonFungible {
		div = 0
	}
	if !amt.Equal(amt.Truncate(div)) {
		return fmt.Errorf("%w: %s exceeds divisibility %d", ErrInvalidAmount, amt, div)
	}
	return nil
}

// positiveAmount is validAmount for mints and deposits, where zero is refused.
func (r *Resource) positiveAmount(amt decimal.Decimal) error {
	if amt.Sign() == 0 {
		return fmt.Errorf("%w: zero %s", ErrInvalidAmount, r.Address)
	}
	return r.validAmount(amt)
}

type NonFungible struct {
	Resource string
	Id       LocalID
	Data     []byte
	MintedAt uint64
}

func NewNonFungible(id LocalID, data interface{}) *NonFungible {
	return &NonFungible{
		Id:   id,
		Data: common.MsgpackMarshalPanic(data),
	}
}

func (nf *NonFungible) Decode(v interface{}) error {
	return common.MsgpackUnmarshal(nf.Data, v)
}

func parseAmount(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	amt, err := decimal.NewFromString(s)
	if err != nil {
		panic(s)
	}
	return amt
}

func (tx *Tx) ReadResource(address string) (*Resource, error) {
	r, err := tx.state.ReadResource(address)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, address)
	}
	return r, nil
}

func (tx *Tx) ReadNonFungible(resource string, id LocalID) (*NonFungible, error) {
	nf, err := tx.state.ReadNonFungible(resource, id)
	if err != nil {
		return nil, err
	}
	if nf == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrNonFungibleNotFound, resource, id)
	}
	return nf, nil
}

func (tx *Tx) CreateFungibleResource(divisibility int, metadata []*Metadata, roles map[string]*RoleAssignment, initial decimal.Decimal) (*Resource, *Bucket, error) {
	address := tx.derive("resource", "")
	return tx.createFungibleResource(address, divisibility, metadata, roles, initial)
}

func (tx *Tx) createFungibleResource(address string, divisibility int, metadata []*Metadata, roles map[string]*RoleAssignment, initial decimal.Decimal) (*Resource, *Bucket, error) {
	if divisibility < 0 || divisibility > 18 {
		return nil, nil, fmt.Errorf("invalid divisibility %d", divisibility)
	}
	r := &Resource{
		Address:      address,
		Kind:         ResourceKindFungible,
		Divisibility: divisibility,
		Metadata:     metadata,
		Roles:        roles,
		TotalSupply:  "0",
		CreatedAt:    tx.now,
	}
	err := r.validAmount(initial)
	if err != nil {
		return nil, nil, err
	}
	old, err := tx.state.ReadResource(address)
	if err != nil {
		return nil, nil, err
	} else if old != nil {
		return nil, nil, fmt.Errorf("resource %s already exists", address)
	}
	r.TotalSupply = initial.String()
	err = tx.state.WriteResource(r)
	if err != nil {
		return nil, nil, err
	}
	b := tx.newBucket(r)
	b.amount = initial
	if initial.Sign() > 0 {
		tx.emit(EventMint, r.Address, nil, initial, nil)
	}
	return r, b, nil
}

// CreateNonFungibleResource mints the initial supply without consulting the
// minter role, which only governs later mints.
func (tx *Tx) CreateNonFungibleResource(metadata []*Metadata, roles map[string]*RoleAssignment, initial []*NonFungible) (*Resource, *Bucket, error) {
	r := &Resource{
		Address:     tx.derive("resource", ""),
		Kind:        ResourceKindNonFungible,
		Metadata:    metadata,
		Roles:       roles,
		TotalSupply: "0",
		CreatedAt:   tx.now,
	}
	err := tx.state.WriteResource(r)
	if err != nil {
		return nil, nil, err
	}
	b, err := tx.mintNonFungibles(r, initial)
	return r, b, err
}

func (tx *Tx) Mint(resource string, amount decimal.Decimal) (*Bucket, error) {
	r, err := tx.ReadResource(resource)
	if err != nil {
		return nil, err
	}
	if r.Kind != ResourceKindFungible {
		return nil, fmt.Errorf("%w: %s is not fungible", ErrResourceMismatch, resource)
	}
	err = tx.authorize(r, RoleMinter)
	if err != nil {
		return nil, err
	}
	err = r.positiveAmount(amount)
	if err != nil {
		return nil, err
	}
	r.TotalSupply = r.Supply().Add(amount).String()
	err = tx.state.WriteResource(r)
	if err != nil {
		return nil, err
	}
	b := tx.newBucket(r)
	b.amount = amount
	tx.emit(EventMint, r.Address, nil, amount, nil)
	return b, nil
}

func (tx *Tx) MintNonFungible(resource string, nfs ...*NonFungible) (*Bucket, error) {
	r, err := tx.ReadResource(resource)
	if err != nil {
		return nil, err
	}
	if r.Kind != ResourceKindNonFungible {
		return nil, fmt.Errorf("%w: %s is fungible", ErrResourceMismatch, resource)
	}
	err = tx.authorize(r, RoleMinter)
	if err != nil {
		return nil, err
	}
	if len(nfs) == 0 {
		return nil, fmt.Errorf("%w: no non fungible to mint in %s", ErrInvalidAmount, resource)
	}
	return tx.mintNonFungibles(r, nfs)
}

func (tx *Tx) mintNonFungibles(r *Resource, nfs []*NonFungible) (*Bucket, error) {
	b := tx.newBucket(r)
	for _, nf := range nfs {
		if _, ok := nf.Id.Integer(); !ok {
			return nil, fmt.Errorf("invalid local id %s", nf.Id)
		}
		old, err := tx.state.ReadNonFungible(r.Address, nf.Id)
		if err != nil {
			return nil, err
		} else if old != nil || indexLocalID(b.ids, nf.Id) >= 0 {
			return nil, fmt.Errorf("%w: %s %s", ErrNonFungibleExists, r.Address, nf.Id)
		}
		nf.Resource = r.Address
		nf.MintedAt = tx.epoch
		err = tx.state.WriteNonFungible(nf)
		if err != nil {
			return nil, err
		}
		b.ids = append(b.ids, nf.Id)
	}
	sortLocalIDs(b.ids)
	if len(b.ids) == 0 {
		return b, nil
	}
	amount := decimal.NewFromInt(int64(len(b.ids)))
	r.TotalSupply = r.Supply().Add(amount).String()
	err := tx.state.WriteResource(r)
	if err != nil {
		return nil, err
	}
	tx.emit(EventMint, r.Address, nil, amount, b.ids)
	return b, nil
}

func (tx *Tx) Burn(b *Bucket) error {
	r, err := tx.ReadResource(b.resource)
	if err != nil {
		return err
	}
	err = tx.authorize(r, RoleBurner)
	if err != nil {
		return err
	}
	amount := b.Amount()
	for _, id := range b.ids {
		err = tx.state.DeleteNonFungible(r.Address, id)
		if err != nil {
			return err
		}
	}
	r.TotalSupply = r.Supply().Sub(amount).String()
	err = tx.state.WriteResource(r)
	if err != nil {
		return err
	}
	if amount.Sign() > 0 {
		tx.emit(EventBurn, r.Address, nil, amount, b.ids)
	}
	b.amount, b.ids = decimal.Zero, nil
	return nil
}

func (tx *Tx) UpdateNonFungibleData(resource string, id LocalID, data interface{}) error {
	r, err := tx.ReadResource(resource)
	if err != nil {
		return err
	}
	err = tx.authorize(r, RoleNonFungibleDataUpdater)
	if err != nil {
		return err
	}
	nf, err := tx.ReadNonFungible(resource, id)
	if err != nil {
		return err
	}
	nf.Data = common.MsgpackMarshalPanic(data)
	return tx.state.WriteNonFungible(nf)
}

func (tx *Tx) SetRole(resource, role string, rule AccessRule) error {
	r, err := tx.ReadResource(resource)
	if err != nil {
		return err
	}
	ra := r.Role(role)
	if !ra.Updater.Allows(tx.signer, tx.Caller()) {
		return fmt.Errorf("%w: %s updater of %s", ErrUnauthorized, role, resource)
	}
	if r.Roles == nil {
		r.Roles = make(map[string]*RoleAssignment)
	}
	r.Roles[role] = &RoleAssignment{Rule: rule, Updater: ra.Updater}
	return tx.state.WriteResource(r)
}

func (tx *Tx) SetMetadata(resource, key, value string) error {
	r, err := tx.ReadResource(resource)
	if err != nil {
		return err
	}
	for _, m := range r.Metadata {
		if m.Key != key {
			continue
		}
		if m.Locked {
			return fmt.Errorf("%w: %s %s", ErrMetadataLocked, resource, key)
		}
		m.Value = value
		return tx.state.WriteResource(r)
	}
	r.Metadata = append(r.Metadata, &Metadata{Key: key, Value: value})
	return tx.state.WriteResource(r)
}

func (tx *Tx) authorize(r *Resource, role string) error {
	if r.Role(role).Rule.Allows(tx.signer, tx.Caller()) {
		return nil
	}
	return fmt.Errorf("%w: %s of %s by %s", ErrUnauthorized, role, r.Address, tx.Caller())
}
