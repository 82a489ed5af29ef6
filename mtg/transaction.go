package mtg

import (
	"context"
	"fmt"
	"time"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/fox-one/mixin-sdk-go"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionStateInitial  = 10
	TransactionStateSnapshot = 13

	MemoSizeLimit = 140
)

type Transaction struct {
	TraceId    string
	State      int
	AssetId    string
	Receiver   string
	Amount     string
	Memo       string
	SnapshotId string
	UpdatedAt  time.Time
}

// the app should decide a unique trace id so that the group will not pay twice
func (grp *Group) BuildTransaction(ctx context.Context, assetId, receiver, amount, memo, traceId string) error {
	amt, err := decimal.NewFromString(amount)
	min, _ := decimal.NewFromString("0.00000001")
	if err != nil || amt.Cmp(min) < 0 {
		return fmt.Errorf("invalid amount %s", amount)
	}
	if len(memo) > MemoSizeLimit {
		return fmt.Errorf("invalid memo size %d", len(memo))
	}
	if id, _ := uuid.FromString(receiver); id == uuid.Nil {
		return fmt.Errorf("invalid receiver %s", receiver)
	}
	if id, _ := uuid.FromString(traceId); id == uuid.Nil {
		return fmt.Errorf("invalid trace id %s", traceId)
	}
	if id, _ := uuid.FromString(assetId); id == uuid.Nil {
		return fmt.Errorf("invalid asset %s", assetId)
	}

	old, err := grp.store.ReadTransaction(traceId)
	if err != nil || old != nil {
		return err
	}
	tx := &Transaction{
		TraceId:   traceId,
		State:     TransactionStateInitial,
		AssetId:   assetId,
		Receiver:  receiver,
		Amount:    amt.String(),
		Memo:      memo,
		UpdatedAt: time.Now(),
	}
	logger.Verbosef("Group.BuildTransaction(%s, %s, %s, %s)\n", traceId, receiver, tx.Amount, memo)
	return grp.store.WriteTransaction(tx)
}

func (grp *Group) publishTransactions(ctx context.Context) error {
	txs, err := grp.store.ListTransactions(TransactionStateInitial, 16)
	if err != nil || len(txs) == 0 {
		return err
	}
	for _, tx := range txs {
		amount, err := decimal.NewFromString(tx.Amount)
		if err != nil {
			panic(tx.Amount)
		}
		in := &mixin.TransferInput{
			AssetID:    tx.AssetId,
			OpponentID: tx.Receiver,
			Amount:     amount,
			TraceID:    tx.TraceId,
			Memo:       tx.Memo,
		}
		s, err := grp.client.Transfer(ctx, in, grp.pin)
		if err != nil {
			logger.Printf("Transfer(%s) => %v\n", tx.TraceId, err)
			return err
		}
		tx.State = TransactionStateSnapshot
		tx.SnapshotId = s.SnapshotID
		tx.UpdatedAt = time.Now()
		err = grp.store.WriteTransaction(tx)
		if err != nil {
			return err
		}
	}
	return nil
}
