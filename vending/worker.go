package vending

import (
	"context"
	"encoding/base64"

	"github.com/MixinNetwork/infinite/ledger"
	"github.com/MixinNetwork/infinite/mtg"
	"github.com/MixinNetwork/mixin/common"
	"github.com/MixinNetwork/mixin/logger"
	"github.com/fox-one/mixin-sdk-go"
)

const (
	MemoChange = "CHANGE"
	MemoRefund = "REFUND"
)

type Builder interface {
	BuildTransaction(ctx context.Context, assetId, receiver, amount, memo, traceId string) error
}

// Worker turns every payment into a purchase of the avatar named in its
// memo, paying back the change, or the whole payment when refused.
type Worker struct {
	grp       Builder
	ledger    *ledger.Ledger
	component string
}

func NewWorker(grp Builder, led *ledger.Ledger, component string) *Worker {
	return &Worker{
		grp:       grp,
		ledger:    led,
		component: component,
	}
}

func (w *Worker) ProcessOutput(ctx context.Context, out *mtg.Output) {
	if out.Sender == "" {
		return
	}
	key, err := DecodePurchaseMemo(out.Memo)
	if err != nil {
		logger.Verbosef("Worker.ProcessOutput(%s) memo %q => %v\n", out.OutputId, out.Memo, err)
		w.payBack(ctx, out, out.Amount, MemoRefund)
		return
	}

	traceId := mixin.UniqueConversationID(out.OutputId, "purchase")
	res, err := Purchase(ctx, w.ledger, w.component, traceId, out.Sender, out.DecimalAmount(), key)
	if Rejected(err) {
		logger.Verbosef("Worker.ProcessOutput(%s) purchase %s => %v\n", out.OutputId, key, err)
		w.payBack(ctx, out, out.Amount, MemoRefund)
		return
	} else if err != nil {
		panic(err)
	}
	logger.Printf("Worker.ProcessOutput(%s) %s bought %s change %s\n", out.OutputId, out.Sender, res.Avatar, res.Change)
	if res.Change.Sign() > 0 {
		w.payBack(ctx, out, res.Change.String(), MemoChange)
	}
}

func (w *Worker) payBack(ctx context.Context, out *mtg.Output, amount, memo string) {
	traceId := mixin.UniqueConversationID(out.OutputId, memo)
	err := w.grp.BuildTransaction(ctx, out.AssetId, out.Sender, amount, memo, traceId)
	if err != nil {
		panic(err)
	}
}

// all purchase memos are base64(msgpack(pm))
type purchaseMemo struct {
	A string
}

func EncodePurchaseMemo(key ledger.LocalID) string {
	b := common.MsgpackMarshalPanic(&purchaseMemo{A: key.String()})
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodePurchaseMemo also accepts a bare avatar id for payments made by hand.
func DecodePurchaseMemo(memo string) (ledger.LocalID, error) {
	if key, err := ledger.ParseLocalID(memo); err == nil {
		return key, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(memo)
	if err != nil {
		return "", err
	}
	var pm purchaseMemo
	err = common.MsgpackUnmarshal(b, &pm)
	if err != nil {
		return "", err
	}
	return ledger.ParseLocalID(pm.A)
}
