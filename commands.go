package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/MixinNetwork/infinite/ledger"
	"github.com/MixinNetwork/infinite/mtg"
	"github.com/MixinNetwork/infinite/vending"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	buyAmount string
	buyTrace  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Process payments and chat commands until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := setupApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		group, err := mtg.BuildGroup(ctx, app.store, app.conf)
		if err != nil {
			return err
		}
		group.AddWorker(vending.NewWorker(group, app.ledger, app.component))
		_, err = NewMessengerWorker(ctx, app)
		if err != nil {
			return err
		}
		group.Run(ctx)
		return nil
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the avatars still for sale",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setupApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		text, err := app.catalog(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	buyCmd.Flags().StringVar(&buyAmount, "amount", "", "payment amount, the deployed avatar price by default")
	buyCmd.Flags().StringVar(&buyTrace, "trace", "", "transaction trace id, random by default")
}

var buyCmd = &cobra.Command{
	Use:   "buy <avatar> <buyer>",
	Short: "Buy an avatar for an account without a Mixin payment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setupApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		return app.buy(cmd.Context(), cmd.OutOrStdout(), args[0], args[1], buyAmount, buyTrace)
	},
}

var receiptCmd = &cobra.Command{
	Use:   "receipt <id>",
	Short: "Show the receipt of a ledger transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setupApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		r, err := app.ledger.ReadReceipt(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("receipt %s not found", args[0])
		}
		printReceipt(cmd.OutOrStdout(), r)
		return nil
	},
}

func (app *App) buy(ctx context.Context, w io.Writer, avatar, buyer, amount, traceId string) error {
	key, err := ledger.ParseLocalID(avatar)
	if err != nil {
		return err
	}
	var price decimal.Decimal
	if amount != "" {
		price, err = decimal.NewFromString(amount)
	} else {
		err = vending.View(ctx, app.ledger, app.component, func(tx *ledger.Tx, c *vending.Component) error {
			price = c.Price()
			return nil
		})
	}
	if err != nil {
		return err
	}
	if traceId == "" {
		traceId = uuid.Must(uuid.NewV4()).String()
	}
	res, err := vending.Purchase(ctx, app.ledger, app.component, traceId, buyer, price, key)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s bought %s, change %s %s\n", buyer, res.Avatar, res.Change, app.conf.Vending.Symbol)
	printReceipt(w, res.Receipt)
	return nil
}

func printReceipt(w io.Writer, r *ledger.Receipt) {
	fmt.Fprintf(w, "receipt %s signer %s epoch %d at %s\n", r.Id, r.Signer, r.Epoch, r.CreatedAt)
	for _, e := range r.Events {
		fmt.Fprintf(w, "  %-8s %s %s", e.Kind, e.Resource, e.Amount)
		if len(e.IDs) > 0 {
			fmt.Fprintf(w, " %v", e.IDs)
		}
		if e.Vault != "" {
			fmt.Fprintf(w, " vault %s of %s", e.Vault, e.Owner)
		}
		fmt.Fprintln(w)
	}
}
