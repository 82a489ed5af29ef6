package vending

import (
	"context"
	"errors"
	"fmt"

	"github.com/MixinNetwork/infinite/ledger"
	"github.com/shopspring/decimal"
)

const (
	componentPropertyKey = "VENDING:COMPONENT:ADDRESS"
	deployTransactionId  = "VENDING:DEPLOY"
)

// Deploy creates the vending component once and returns its address on
// every later call.
func Deploy(ctx context.Context, led *ledger.Ledger, symbol string, price decimal.Decimal) (string, error) {
	err := led.Bootstrap(ctx, symbol)
	if err != nil {
		return "", err
	}
	var address string
	_, err = led.Transact(ctx, deployTransactionId, ledger.System, func(tx *ledger.Tx) error {
		c, err := Instantiate(tx, ledger.NativeResource, price)
		if err != nil {
			return err
		}
		address = c.Address
		return tx.WriteProperty(componentPropertyKey, address)
	})
	if errors.Is(err, ledger.ErrAlreadyCommitted) {
		return Address(ctx, led)
	}
	return address, err
}

func Address(ctx context.Context, led *ledger.Ledger) (string, error) {
	var address string
	err := led.View(ctx, func(tx *ledger.Tx) error {
		val, err := tx.ReadProperty(componentPropertyKey)
		address = val
		return err
	})
	if err == nil && address == "" {
		err = fmt.Errorf("%w: vending not deployed", ledger.ErrComponentNotFound)
	}
	return address, err
}

func View(ctx context.Context, led *ledger.Ledger, address string, fn func(tx *ledger.Tx, c *Component) error) error {
	return led.View(ctx, func(tx *ledger.Tx) error {
		c, err := Load(tx, address)
		if err != nil {
			return err
		}
		return fn(tx, c)
	})
}

type Result struct {
	Receipt *ledger.Receipt
	Avatar  ledger.LocalID
	Change  decimal.Decimal
}

// Purchase bridges an external payment of amount into the ledger, buys the
// avatar key for buyer and burns the change so it can be paid back outside.
// The trace id makes retries return the first result.
func Purchase(ctx context.Context, led *ledger.Ledger, address, traceId, buyer string, amount decimal.Decimal, key ledger.LocalID) (*Result, error) {
	if buyer == "" {
		return nil, fmt.Errorf("empty buyer")
	}
	var avatars string
	err := View(ctx, led, address, func(tx *ledger.Tx, c *Component) error {
		avatars = c.AvatarResource
		return nil
	})
	if err != nil {
		return nil, err
	}

	receipt, err := led.Transact(ctx, traceId, ledger.System, func(tx *ledger.Tx) error {
		c, err := Load(tx, address)
		if err != nil {
			return err
		}
		payment, err := tx.Mint(ledger.NativeResource, amount)
		if err != nil {
			return err
		}
		avatar, change, err := c.BuyAvatar(tx, payment, key)
		if err != nil {
			return err
		}
		err = tx.Deposit(buyer, avatar)
		if err != nil {
			return err
		}
		return tx.Burn(change)
	})
	if err != nil && !errors.Is(err, ledger.ErrAlreadyCommitted) {
		return nil, err
	}

	ids := receipt.Deposited(avatars, ledger.Account(buyer))
	if len(ids) != 1 {
		return nil, fmt.Errorf("transaction %s is not a purchase by %s", traceId, buyer)
	}
	change, err := decimal.NewFromString(receipt.Burned(ledger.NativeResource))
	if err != nil {
		return nil, err
	}
	return &Result{
		Receipt: receipt,
		Avatar:  ids[0],
		Change:  change,
	}, nil
}

// Rejected reports whether err is a purchase refused for the payment or the
// key, as opposed to a failure of the ledger itself.
func Rejected(err error) bool {
	for _, e := range []error{
		ledger.ErrInsufficientBalance,
		ledger.ErrNonFungibleNotFound,
		ledger.ErrInvalidAmount,
		ledger.ErrResourceMismatch,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
