package mtg

import (
	"context"
	"time"

	"github.com/fox-one/mixin-sdk-go"
)

type Store interface {
	WriteProperty(key, val []byte) error
	ReadProperty(key []byte) ([]byte, error)

	WriteOutput(out *Output) error
	ReadOutput(id string) (*Output, error)
	ListOutputs(state int, limit int) ([]*Output, error)

	WriteTransaction(tx *Transaction) error
	ReadTransaction(traceId string) (*Transaction, error)
	ListTransactions(state int, limit int) ([]*Transaction, error)
}

// Client is the part of the Mixin API the group relies on, implemented by
// *mixin.Client.
type Client interface {
	ReadSnapshots(ctx context.Context, assetID string, offset time.Time, order string, limit int) ([]*mixin.Snapshot, error)
	Transfer(ctx context.Context, input *mixin.TransferInput, pin string) (*mixin.Snapshot, error)
}

type Worker interface {
	ProcessOutput(context.Context, *Output)
}
