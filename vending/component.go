package vending

import (
	"fmt"

	"github.com/MixinNetwork/infinite/ledger"
	"github.com/shopspring/decimal"
)

const Blueprint = "InfiniteNft"

// Component is the persisted state of a deployed vending machine.
type Component struct {
	Address            string
	AvatarVault        string
	AvatarPrice        string
	AvatarResource     string
	TradeBadgeResource string
	CollectedVault     string
	NftIdCounter       uint64
	Receivers          []string
}

// Instantiate mints the classic collection, declares the trade badge and
// stores both the avatars and an empty payment vault in a new component.
func Instantiate(tx *ledger.Tx, payment string, price decimal.Decimal) (*Component, error) {
	if price.Sign() <= 0 {
		return nil, fmt.Errorf("%w: price %s", ledger.ErrInvalidAmount, price)
	}
	pr, err := tx.ReadResource(payment)
	if err != nil {
		return nil, err
	}
	if pr.Kind != ledger.ResourceKindFungible {
		return nil, fmt.Errorf("%w: payment %s is not fungible", ledger.ErrResourceMismatch, payment)
	}
	if !price.Equal(price.Truncate(int32(pr.Divisibility))) {
		return nil, fmt.Errorf("%w: price %s exceeds divisibility %d", ledger.ErrInvalidAmount, price, pr.Divisibility)
	}

	var supply []*ledger.NonFungible
	for _, item := range Catalog() {
		supply = append(supply, ledger.NewNonFungible(item.Id, item.Avatar))
	}
	metadata := []*ledger.Metadata{
		{Key: "name", Value: CollectionName, Locked: true},
		{Key: "key_image_url", Value: CollectionImageURL, Locked: true},
	}
	avatars, bucket, err := tx.CreateNonFungibleResource(metadata, nil, supply)
	if err != nil {
		return nil, err
	}

	address := tx.AllocateComponentAddress(Blueprint)
	caller := ledger.RequireGlobalCaller(address)
	badges, _, err := tx.CreateNonFungibleResource([]*ledger.Metadata{
		{Key: "name", Value: TradeBadgeName, Locked: true},
	}, map[string]*ledger.RoleAssignment{
		ledger.RoleMinter:                 ledger.Locked(caller),
		ledger.RoleBurner:                 ledger.Locked(caller),
		ledger.RoleNonFungibleDataUpdater: ledger.Locked(caller),
	}, nil)
	if err != nil {
		return nil, err
	}

	c := &Component{
		Address:            address,
		AvatarPrice:        price.String(),
		AvatarResource:     avatars.Address,
		TradeBadgeResource: badges.Address,
		Receivers:          []string{},
	}
	err = tx.Call(address, func() error {
		av, err := tx.NewVault(avatars.Address)
		if err != nil {
			return err
		}
		err = av.Put(bucket)
		if err != nil {
			return err
		}
		cv, err := tx.NewVault(payment)
		if err != nil {
			return err
		}
		c.AvatarVault, c.CollectedVault = av.Id(), cv.Id()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, c.save(tx)
}

func Load(tx *ledger.Tx, address string) (*Component, error) {
	var c Component
	blueprint, err := tx.ReadComponent(address, &c)
	if err != nil {
		return nil, err
	}
	if blueprint != Blueprint {
		return nil, fmt.Errorf("component %s is %s", address, blueprint)
	}
	return &c, nil
}

func (c *Component) save(tx *ledger.Tx) error {
	return tx.WriteComponent(c.Address, Blueprint, c)
}

func (c *Component) Price() decimal.Decimal {
	price, err := decimal.NewFromString(c.AvatarPrice)
	if err != nil {
		panic(c.AvatarPrice)
	}
	return price
}

// BuyAvatar keeps the price out of payment and hands back the avatar key
// together with whatever is left of the payment. Any failure aborts the
// surrounding transaction, so the payment is never lost.
func (c *Component) BuyAvatar(tx *ledger.Tx, payment *ledger.Bucket, key ledger.LocalID) (*ledger.Bucket, *ledger.Bucket, error) {
	var avatar *ledger.Bucket
	err := tx.Call(c.Address, func() error {
		collected, err := tx.LoadVault(c.CollectedVault)
		if err != nil {
			return err
		}
		price, err := payment.Take(c.Price())
		if err != nil {
			return err
		}
		err = collected.Put(price)
		if err != nil {
			return err
		}
		vault, err := tx.LoadVault(c.AvatarVault)
		if err != nil {
			return err
		}
		avatar, err = vault.TakeNonFungible(key)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return avatar, payment, nil
}

func (c *Component) Available(tx *ledger.Tx) ([]*Item, error) {
	vault, err := tx.LoadVault(c.AvatarVault)
	if err != nil {
		return nil, err
	}
	var items []*Item
	for _, id := range vault.IDs() {
		nf, err := tx.ReadNonFungible(c.AvatarResource, id)
		if err != nil {
			return nil, err
		}
		var a Avatar
		err = nf.Decode(&a)
		if err != nil {
			return nil, err
		}
		items = append(items, &Item{Id: id, Avatar: &a})
	}
	return items, nil
}

func (c *Component) Collected(tx *ledger.Tx) (decimal.Decimal, error) {
	vault, err := tx.LoadVault(c.CollectedVault)
	if err != nil {
		return decimal.Zero, err
	}
	return vault.Amount(), nil
}
