package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MixinNetwork/infinite/ledger"
	"github.com/MixinNetwork/infinite/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.Lock()
	defer c.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func setupLedger(t *testing.T) *ledger.Ledger {
	require := require.New(t)

	db, err := store.OpenMemoryBadger()
	require.Nil(err)
	t.Cleanup(func() { db.Close() })

	clock := &testClock{now: time.Unix(1700000000, 0)}
	led := ledger.New(db, clock, time.Unix(1600000000, 0))
	require.Nil(led.Bootstrap(context.Background(), "XRD"))
	return led
}

func native(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func balance(t *testing.T, led *ledger.Ledger, account string) decimal.Decimal {
	var amount decimal.Decimal
	err := led.View(context.Background(), func(tx *ledger.Tx) error {
		v, err := tx.AccountVault(account, ledger.NativeResource)
		if err != nil {
			return err
		}
		amount = v.Amount()
		return nil
	})
	require.Nil(t, err)
	return amount
}

func TestBootstrap(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	led := setupLedger(t)

	require.Nil(led.Bootstrap(ctx, "XRD"))
	err := led.View(ctx, func(tx *ledger.Tx) error {
		r, err := tx.ReadResource(ledger.NativeResource)
		if err != nil {
			return err
		}
		require.Equal(ledger.ResourceKindFungible, r.Kind)
		require.Equal(ledger.NativeDivisibility, r.Divisibility)
		require.Equal("Native XRD", r.Name())
		require.True(r.Supply().IsZero())
		require.Equal(ledger.RuleRequireSystem, r.Role(ledger.RoleMinter).Rule.Kind)
		require.Equal(ledger.RuleDenyAll, r.Role(ledger.RoleMinter).Updater.Kind)
		return nil
	})
	require.Nil(err)
}

func TestTransactAtomic(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	led := setupLedger(t)

	_, err := led.Transact(ctx, "mint-and-fail", ledger.System, func(tx *ledger.Tx) error {
		b, err := tx.Mint(ledger.NativeResource, native("10"))
		if err != nil {
			return err
		}
		err = tx.Deposit("alice", b)
		if err != nil {
			return err
		}
		_, err = tx.Withdraw("alice", ledger.NativeResource, native("11"))
		return err
	})
	require.ErrorIs(err, ledger.ErrInsufficientBalance)
	require.True(balance(t, led, "alice").IsZero())

	r, err := led.ReadReceipt(ctx, "mint-and-fail")
	require.Nil(err)
	require.Nil(r)

	err = led.View(ctx, func(tx *ledger.Tx) error {
		r, err := tx.ReadResource(ledger.NativeResource)
		if err != nil {
			return err
		}
		require.True(r.Supply().IsZero())
		return nil
	})
	require.Nil(err)
}

func TestBucketNotEmpty(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	led := setupLedger(t)

	_, err := led.Transact(ctx, "dropped", ledger.System, func(tx *ledger.Tx) error {
		b, err := tx.Mint(ledger.NativeResource, native("5"))
		if err != nil {
			return err
		}
		part, err := b.Take(native("2"))
		if err != nil {
			return err
		}
		return tx.Deposit("alice", part)
	})
	require.ErrorIs(err, ledger.ErrBucketNotEmpty)
	require.True(balance(t, led, "alice").IsZero())
}

func TestTransactReplay(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	led := setupLedger(t)

	calls := 0
	mint := func(tx *ledger.Tx) error {
		calls += 1
		b, err := tx.Mint(ledger.NativeResource, native("3"))
		if err != nil {
			return err
		}
		return tx.Deposit("alice", b)
	}
	r1, err := led.Transact(ctx, "once", ledger.System, mint)
	require.Nil(err)
	require.Len(r1.Events, 2)
	require.Equal(ledger.EventMint, r1.Events[0].Kind)
	require.Equal(ledger.EventDeposit, r1.Events[1].Kind)
	require.Equal(ledger.Account("alice"), r1.Events[1].Owner)

	r2, err := led.Transact(ctx, "once", ledger.System, mint)
	require.ErrorIs(err, ledger.ErrAlreadyCommitted)
	require.Equal(r1.Id, r2.Id)
	require.Equal(1, calls)
	require.True(native("3").Equal(balance(t, led, "alice")))

	_, err = led.Transact(ctx, "", ledger.System, mint)
	require.NotNil(err)
}

func TestNativeAuthority(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	led := setupLedger(t)

	_, err := led.Transact(ctx, "forge", ledger.Account("mallory"), func(tx *ledger.Tx) error {
		b, err := tx.Mint(ledger.NativeResource, native("1"))
		if err != nil {
			return err
		}
		return tx.Deposit("mallory", b)
	})
	require.ErrorIs(err, ledger.ErrUnauthorized)

	_, err = led.Transact(ctx, "fund", ledger.System, func(tx *ledger.Tx) error {
		b, err := tx.Mint(ledger.NativeResource, native("10"))
		if err != nil {
			return err
		}
		return tx.Deposit("alice", b)
	})
	require.Nil(err)

	_, err = led.Transact(ctx, "steal", ledger.Account("bob"), func(tx *ledger.Tx) error {
		b, err := tx.Withdraw("alice", ledger.NativeResource, native("1"))
		if err != nil {
			return err
		}
		return tx.Deposit("bob", b)
	})
	require.ErrorIs(err, ledger.ErrUnauthorized)

	_, err = led.Transact(ctx, "pay", ledger.Account("alice"), func(tx *ledger.Tx) error {
		b, err := tx.Withdraw("alice", ledger.NativeResource, native("3.5"))
		if err != nil {
			return err
		}
		return tx.Deposit("bob", b)
	})
	require.Nil(err)
	require.True(native("6.5").Equal(balance(t, led, "alice")))
	require.True(native("3.5").Equal(balance(t, led, "bob")))

	_, err = led.Transact(ctx, "burn", ledger.Account("alice"), func(tx *ledger.Tx) error {
		b, err := tx.Withdraw("alice", ledger.NativeResource, native("1"))
		if err != nil {
			return err
		}
		return tx.Burn(b)
	})
	require.ErrorIs(err, ledger.ErrUnauthorized)

	_, err = led.Transact(ctx, "precision", ledger.System, func(tx *ledger.Tx) error {
		_, err := tx.Mint(ledger.NativeResource, native("0.000000001"))
		return err
	})
	require.ErrorIs(err, ledger.ErrInvalidAmount)

	_, err = led.Transact(ctx, "negative", ledger.System, func(tx *ledger.Tx) error {
		_, err := tx.Mint(ledger.NativeResource, native("-1"))
		return err
	})
	require.ErrorIs(err, ledger.ErrInvalidAmount)

	r, err := led.Transact(ctx, "zero", ledger.System, func(tx *ledger.Tx) error {
		b, err := tx.Mint(ledger.NativeResource, decimal.Zero)
		if err != nil {
			return err
		}
		return tx.Burn(b)
	})
	require.ErrorIs(err, ledger.ErrInvalidAmount)
	require.Nil(r)
	missing, err := led.ReadReceipt(ctx, "zero")
	require.Nil(err)
	require.Nil(missing)
}

func TestZeroDeposit(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	led := setupLedger(t)

	_, err := led.Transact(ctx, "empty", ledger.Account("alice"), func(tx *ledger.Tx) error {
		b, err := tx.Withdraw("alice", ledger.NativeResource, decimal.Zero)
		if err != nil {
			return err
		}
		require.True(b.IsEmpty())
		return tx.Deposit("bob", b)
	})
	require.ErrorIs(err, ledger.ErrInvalidAmount)

	_, err = led.Transact(ctx, "nothing", ledger.System, func(tx *ledger.Tx) error {
		badges, _, err := tx.CreateNonFungibleResource(nil, map[string]*ledger.RoleAssignment{
			ledger.RoleMinter: ledger.Locked(ledger.AllowAll()),
		}, nil)
		if err != nil {
			return err
		}
		_, err = tx.MintNonFungible(badges.Address)
		return err
	})
	require.ErrorIs(err, ledger.ErrInvalidAmount)
}

func TestVaultHandles(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	led := setupLedger(t)

	var component, vault string
	_, err := led.Transact(ctx, "component", ledger.System, func(tx *ledger.Tx) error {
		component = tx.AllocateComponentAddress("Safe")
		return tx.Call(component, func() error {
			v, err := tx.NewVault(ledger.NativeResource)
			if err != nil {
				return err
			}
			vault = v.Id()
			b, err := tx.Mint(ledger.NativeResource, native("4"))
			if err != nil {
				return err
			}
			return v.Put(b)
		})
	})
	require.Nil(err)

	_, err = led.Transact(ctx, "twice", ledger.System, func(tx *ledger.Tx) error {
		return tx.Call(component, func() error {
			first, err := tx.LoadVault(vault)
			if err != nil {
				return err
			}
			second, err := tx.LoadVault(vault)
			if err != nil {
				return err
			}
			a, err := first.Take(native("1"))
			if err != nil {
				return err
			}
			b, err := second.Take(native("1"))
			if err != nil {
				return err
			}
			require.True(native("2").Equal(first.Amount()))
			require.True(native("2").Equal(second.Amount()))

			alice, err := tx.AccountVault("alice", ledger.NativeResource)
			if err != nil {
				return err
			}
			err = tx.Deposit("alice", a)
			if err != nil {
				return err
			}
			err = alice.Put(b)
			if err != nil {
				return err
			}
			require.True(native("2").Equal(alice.Amount()))
			return nil
		})
	})
	require.Nil(err)
	require.True(native("2").Equal(balance(t, led, "alice")))

	err = led.View(ctx, func(tx *ledger.Tx) error {
		v, err := tx.LoadVault(vault)
		if err != nil {
			return err
		}
		require.True(native("2").Equal(v.Amount()))
		return nil
	})
	require.Nil(err)
}

func TestComponentRoles(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	led := setupLedger(t)

	var component, badges string
	_, err := led.Transact(ctx, "declare", ledger.System, func(tx *ledger.Tx) error {
		component = tx.AllocateComponentAddress("Badges")
		rule := ledger.RequireGlobalCaller(component)
		r, _, err := tx.CreateNonFungibleResource([]*ledger.Metadata{
			{Key: "name", Value: "Badge", Locked: true},
			{Key: "description", Value: "draft"},
		}, map[string]*ledger.RoleAssignment{
			ledger.RoleMinter:                 ledger.Locked(rule),
			ledger.RoleBurner:                 ledger.Locked(rule),
			ledger.RoleNonFungibleDataUpdater: ledger.Locked(rule),
		}, nil)
		if err != nil {
			return err
		}
		badges = r.Address
		return tx.WriteComponent(component, "Badges", map[string]string{"badges": badges})
	})
	require.Nil(err)

	badge := ledger.NewNonFungible(ledger.IntegerLocalID(1), map[string]uint64{"epoch": 1})
	_, err = led.Transact(ctx, "outside", ledger.System, func(tx *ledger.Tx) error {
		b, err := tx.MintNonFungible(badges, badge)
		if err != nil {
			return err
		}
		return tx.Deposit("alice", b)
	})
	require.ErrorIs(err, ledger.ErrUnauthorized)

	_, err = led.Transact(ctx, "inside", ledger.Account("alice"), func(tx *ledger.Tx) error {
		return tx.Call(component, func() error {
			b, err := tx.MintNonFungible(badges, badge)
			if err != nil {
				return err
			}
			err = tx.UpdateNonFungibleData(badges, ledger.IntegerLocalID(1), map[string]uint64{"epoch": 2})
			if err != nil {
				return err
			}
			return tx.Deposit("alice", b)
		})
	})
	require.Nil(err)

	_, err = led.Transact(ctx, "again", ledger.System, func(tx *ledger.Tx) error {
		return tx.Call(component, func() error {
			b, err := tx.MintNonFungible(badges, ledger.NewNonFungible(ledger.IntegerLocalID(1), nil))
			if err != nil {
				return err
			}
			return tx.Deposit("alice", b)
		})
	})
	require.ErrorIs(err, ledger.ErrNonFungibleExists)

	_, err = led.Transact(ctx, "relax", ledger.System, func(tx *ledger.Tx) error {
		return tx.Call(component, func() error {
			return tx.SetRole(badges, ledger.RoleMinter, ledger.AllowAll())
		})
	})
	require.ErrorIs(err, ledger.ErrUnauthorized)

	_, err = led.Transact(ctx, "rename", ledger.System, func(tx *ledger.Tx) error {
		return tx.SetMetadata(badges, "name", "Other")
	})
	require.ErrorIs(err, ledger.ErrMetadataLocked)

	_, err = led.Transact(ctx, "describe", ledger.System, func(tx *ledger.Tx) error {
		return tx.SetMetadata(badges, "description", "final")
	})
	require.Nil(err)

	err = led.View(ctx, func(tx *ledger.Tx) error {
		r, err := tx.ReadResource(badges)
		if err != nil {
			return err
		}
		require.True(r.Supply().Equal(decimal.NewFromInt(1)))
		desc, _ := r.MetadataValue("description")
		require.Equal("final", desc)

		nf, err := tx.ReadNonFungible(badges, ledger.IntegerLocalID(1))
		if err != nil {
			return err
		}
		var data map[string]uint64
		require.Nil(nf.Decode(&data))
		require.Equal(uint64(2), data["epoch"])

		v, err := tx.AccountVault("alice", badges)
		if err != nil {
			return err
		}
		require.Equal([]ledger.LocalID{"#1#"}, v.IDs())

		var state map[string]string
		blueprint, err := tx.ReadComponent(component, &state)
		require.Equal("Badges", blueprint)
		require.Equal(badges, state["badges"])
		return err
	})
	require.Nil(err)
}

func TestVaultOwnership(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	led := setupLedger(t)

	var component, vault string
	_, err := led.Transact(ctx, "component", ledger.System, func(tx *ledger.Tx) error {
		component = tx.AllocateComponentAddress("Safe")
		return tx.Call(component, func() error {
			v, err := tx.NewVault(ledger.NativeResource)
			if err != nil {
				return err
			}
			vault = v.Id()
			b, err := tx.Mint(ledger.NativeResource, native("4"))
			if err != nil {
				return err
			}
			return v.Put(b)
		})
	})
	require.Nil(err)

	_, err = led.Transact(ctx, "outsider", ledger.System, func(tx *ledger.Tx) error {
		v, err := tx.LoadVault(vault)
		if err != nil {
			return err
		}
		b, err := v.Take(native("1"))
		if err != nil {
			return err
		}
		return tx.Deposit("alice", b)
	})
	require.ErrorIs(err, ledger.ErrUnauthorized)

	_, err = led.Transact(ctx, "owner", ledger.System, func(tx *ledger.Tx) error {
		return tx.Call(component, func() error {
			v, err := tx.LoadVault(vault)
			if err != nil {
				return err
			}
			b, err := v.Take(native("1.25"))
			if err != nil {
				return err
			}
			return tx.Deposit("alice", b)
		})
	})
	require.Nil(err)
	require.True(native("1.25").Equal(balance(t, led, "alice")))

	_, err = led.Transact(ctx, "mismatch", ledger.System, func(tx *ledger.Tx) error {
		badges, b, err := tx.CreateNonFungibleResource(nil, nil, []*ledger.NonFungible{
			ledger.NewNonFungible(ledger.IntegerLocalID(9), "nine"),
		})
		if err != nil {
			return err
		}
		require.Equal(ledger.ResourceKindNonFungible, badges.Kind)
		v, err := tx.LoadVault(vault)
		if err != nil {
			return err
		}
		return v.Put(b)
	})
	require.ErrorIs(err, ledger.ErrResourceMismatch)

	_, err = led.Transact(ctx, "missing", ledger.System, func(tx *ledger.Tx) error {
		_, err := tx.LoadVault("internal_vault_missing")
		return err
	})
	require.ErrorIs(err, ledger.ErrVaultNotFound)
}

func TestBucketOperations(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	led := setupLedger(t)

	_, err := led.Transact(ctx, "buckets", ledger.System, func(tx *ledger.Tx) error {
		burnable := map[string]*ledger.RoleAssignment{
			ledger.RoleBurner: ledger.Locked(ledger.AllowAll()),
		}
		r, b, err := tx.CreateNonFungibleResource(nil, burnable, []*ledger.NonFungible{
			ledger.NewNonFungible(ledger.IntegerLocalID(10), "ten"),
			ledger.NewNonFungible(ledger.IntegerLocalID(2), "two"),
			ledger.NewNonFungible(ledger.IntegerLocalID(3), "three"),
		})
		if err != nil {
			return err
		}
		require.True(r.Supply().Equal(decimal.NewFromInt(3)))
		require.Equal([]ledger.LocalID{"#2#", "#3#", "#10#"}, b.IDs())

		three, err := b.TakeNonFungible(ledger.IntegerLocalID(3))
		require.Nil(err)
		require.Equal([]ledger.LocalID{"#2#", "#10#"}, b.IDs())
		_, err = b.TakeNonFungible(ledger.IntegerLocalID(3))
		require.ErrorIs(err, ledger.ErrNonFungibleNotFound)

		first, err := b.Take(decimal.NewFromInt(1))
		require.Nil(err)
		require.Equal([]ledger.LocalID{"#2#"}, first.IDs())
		_, err = b.Take(native("0.5"))
		require.ErrorIs(err, ledger.ErrInvalidAmount)

		require.Nil(b.Put(three))
		require.True(three.IsEmpty())
		require.Equal([]ledger.LocalID{"#3#", "#10#"}, b.IDs())

		coins, err := tx.Mint(ledger.NativeResource, native("2"))
		if err != nil {
			return err
		}
		require.ErrorIs(b.Put(coins), ledger.ErrResourceMismatch)
		_, err = coins.TakeNonFungible(ledger.IntegerLocalID(1))
		require.ErrorIs(err, ledger.ErrResourceMismatch)
		_, err = coins.Take(native("3"))
		require.ErrorIs(err, ledger.ErrInsufficientBalance)

		require.Nil(tx.Burn(b))
		require.Nil(tx.Burn(coins))
		return tx.Deposit("alice", first)
	})
	require.Nil(err)
}

func TestLocalID(t *testing.T) {
	require := require.New(t)

	id, err := ledger.ParseLocalID("#7#")
	require.Nil(err)
	require.Equal(ledger.IntegerLocalID(7), id)
	id, err = ledger.ParseLocalID(" 12 ")
	require.Nil(err)
	require.Equal(ledger.LocalID("#12#"), id)
	n, ok := id.Integer()
	require.True(ok)
	require.Equal(uint64(12), n)

	for _, s := range []string{"", "#", "##", "#a#", "-1", "<abc>"} {
		_, err = ledger.ParseLocalID(s)
		require.NotNil(err, s)
	}
}

func TestAccessRule(t *testing.T) {
	require := require.New(t)

	alice := ledger.Account("alice")
	comp := ledger.Component("component_a")
	require.False(ledger.DenyAll().Allows(ledger.System, ledger.System))
	require.True(ledger.AllowAll().Allows(alice, alice))
	require.True(ledger.RequireSystem().Allows(ledger.System, comp))
	require.False(ledger.RequireSystem().Allows(alice, alice))
	require.True(ledger.RequireGlobalCaller("component_a").Allows(alice, comp))
	require.False(ledger.RequireGlobalCaller("component_a").Allows(ledger.System, ledger.System))
	require.False(ledger.RequireGlobalCaller("component_b").Allows(alice, comp))
	require.Equal("require(global_caller(component_a))", ledger.RequireGlobalCaller("component_a").String())
	require.Equal("account:alice", alice.String())
}
