package mtg

import (
	"time"

	"github.com/fox-one/mixin-sdk-go"
	"github.com/shopspring/decimal"
)

const (
	OutputStatePending   = 10
	OutputStateProcessed = 11
)

// Output is a payment received by the app, identified by its snapshot.
type Output struct {
	OutputId  string
	TraceId   string
	AssetId   string
	Sender    string
	Amount    string
	Memo      string
	State     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewOutputFromSnapshot(s *mixin.Snapshot) *Output {
	return &Output{
		OutputId:  s.SnapshotID,
		TraceId:   s.TraceID,
		AssetId:   s.AssetID,
		Sender:    s.OpponentID,
		Amount:    s.Amount.String(),
		Memo:      s.Memo,
		State:     OutputStatePending,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.CreatedAt,
	}
}

func (out *Output) DecimalAmount() decimal.Decimal {
	amt, err := decimal.NewFromString(out.Amount)
	if err != nil {
		panic(out.Amount)
	}
	return amt
}

func (out *Output) StateName() string {
	switch out.State {
	case OutputStatePending:
		return "pending"
	case OutputStateProcessed:
		return "processed"
	}
	panic(out.State)
}
