package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/MixinNetwork/infinite/ledger"
	"github.com/MixinNetwork/infinite/vending"
	"github.com/MixinNetwork/mixin/logger"
	"github.com/fox-one/mixin-sdk-go"
	"github.com/shopspring/decimal"
)

const (
	commandList = "LIST"
	commandBuy  = "BUY"
	commandHelp = "HELP"
)

// MessengerWorker answers chat commands, it never moves assets itself but
// hands out payment codes whose memo names the avatar.
type MessengerWorker struct {
	client *mixin.Client
	app    *App
}

func NewMessengerWorker(ctx context.Context, app *App) (*MessengerWorker, error) {
	s := &mixin.Keystore{
		ClientID:   app.conf.App.ClientId,
		SessionID:  app.conf.App.SessionId,
		PrivateKey: app.conf.App.PrivateKey,
		PinToken:   app.conf.App.PinToken,
	}
	client, err := mixin.NewFromKeystore(s)
	if err != nil {
		return nil, err
	}
	mw := &MessengerWorker{
		client: client,
		app:    app,
	}
	go mw.loop(ctx)
	return mw, nil
}

func (mw *MessengerWorker) loop(ctx context.Context) {
	for {
		err := mw.client.LoopBlaze(ctx, mw)
		logger.Printf("LoopBlaze() => %v\n", err)
		if ctx.Err() != nil {
			break
		}
		time.Sleep(3 * time.Second)
	}
}

func (mw *MessengerWorker) OnMessage(ctx context.Context, msg *mixin.MessageView, userId string) error {
	if msg.Category != mixin.MessageCategoryPlainText {
		return nil
	}
	text, err := decodeMessageText(msg.Data)
	if err != nil {
		return nil
	}
	reply, err := mw.handleText(ctx, msg.MessageID, text)
	if err != nil {
		logger.Verbosef("MessengerWorker.handleText(%s, %q) => %v\n", msg.MessageID, text, err)
		reply = err.Error()
	}
	mr := &mixin.MessageRequest{
		ConversationID: msg.ConversationID,
		Category:       mixin.MessageCategoryPlainText,
		MessageID:      mixin.UniqueConversationID(msg.MessageID, msg.MessageID),
		Data:           base64.RawURLEncoding.EncodeToString([]byte(reply)),
	}
	return mw.client.SendMessage(ctx, mr)
}

func (mw *MessengerWorker) OnAckReceipt(ctx context.Context, msg *mixin.MessageView, userId string) error {
	return nil
}

func (mw *MessengerWorker) handleText(ctx context.Context, msgId, text string) (string, error) {
	cmd, key, err := parseCommand(text)
	if err != nil {
		return "", err
	}
	switch cmd {
	case commandList:
		return mw.app.catalog(ctx)
	case commandBuy:
		code, err := mw.handleBuyMessage(ctx, msgId, key)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("pay for avatar %s mixin://codes/%s", key, code), nil
	}
	return helpText, nil
}

func (mw *MessengerWorker) handleBuyMessage(ctx context.Context, msgId string, key ledger.LocalID) (string, error) {
	var available bool
	var price string
	err := vending.View(ctx, mw.app.ledger, mw.app.component, func(tx *ledger.Tx, c *vending.Component) error {
		vault, err := tx.LoadVault(c.AvatarVault)
		if err != nil {
			return err
		}
		available, price = vault.Contains(key), c.AvatarPrice
		return nil
	})
	if err != nil {
		return "", err
	}
	if !available {
		return "", fmt.Errorf("avatar %s is not for sale", key)
	}

	pr := mixin.TransferInput{
		AssetID:    mw.app.conf.Vending.AssetId,
		OpponentID: mw.app.conf.App.ClientId,
		TraceID:    mixin.UniqueConversationID(msgId, "payment"),
		Memo:       vending.EncodePurchaseMemo(key),
	}
	amount, err := decimal.NewFromString(price)
	if err != nil {
		return "", err
	}
	pr.Amount = amount
	payment, err := mw.client.VerifyPayment(ctx, pr)
	if err != nil {
		return "", err
	}
	return payment.CodeID, nil
}

const helpText = `LIST: show the avatars for sale
BUY <n>: get a payment code for avatar n`

func parseCommand(text string) (string, ledger.LocalID, error) {
	fields := strings.Fields(strings.ToUpper(text))
	if len(fields) == 0 {
		return commandHelp, "", nil
	}
	switch fields[0] {
	case commandList:
		return commandList, "", nil
	case commandBuy:
		if len(fields) != 2 {
			return "", "", fmt.Errorf("usage: BUY <n>")
		}
		key, err := ledger.ParseLocalID(fields[1])
		if err != nil {
			return "", "", err
		}
		return commandBuy, key, nil
	}
	return commandHelp, "", nil
}

func decodeMessageText(data string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		b, err = base64.RawURLEncoding.DecodeString(data)
	}
	return string(b), err
}

func (app *App) catalog(ctx context.Context) (string, error) {
	var items []*vending.Item
	var price string
	err := vending.View(ctx, app.ledger, app.component, func(tx *ledger.Tx, c *vending.Component) error {
		available, err := c.Available(tx)
		items, price = available, c.AvatarPrice
		return err
	})
	if err != nil {
		return "", err
	}
	return renderCatalog(items, price, app.conf.Vending.Symbol), nil
}

func renderCatalog(items []*vending.Item, price, symbol string) string {
	if len(items) == 0 {
		return "all avatars are sold"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s, %s %s each\n", vending.CollectionName, price, symbol)
	for _, item := range items {
		fmt.Fprintf(&b, "%s %s (%s) %s\n", item.Id, item.Avatar.Name, item.Avatar.CollectionType, item.Avatar.KeyImageURL)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
