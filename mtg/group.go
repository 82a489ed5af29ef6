package mtg

import (
	"context"
	"fmt"
	"time"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/fox-one/mixin-sdk-go"
)

type Group struct {
	client  Client
	store   Store
	workers []Worker

	clientId string
	assetId  string
	pin      string
}

func BuildGroup(ctx context.Context, store Store, conf *Configuration) (*Group, error) {
	s := &mixin.Keystore{
		ClientID:   conf.App.ClientId,
		SessionID:  conf.App.SessionId,
		PrivateKey: conf.App.PrivateKey,
		PinToken:   conf.App.PinToken,
	}
	client, err := mixin.NewFromKeystore(s)
	if err != nil {
		return nil, err
	}
	err = client.VerifyPin(ctx, conf.App.PIN)
	if err != nil {
		return nil, err
	}
	return NewGroup(client, store, conf)
}

func NewGroup(client Client, store Store, conf *Configuration) (*Group, error) {
	if conf.App.ClientId == "" || conf.Vending.AssetId == "" {
		return nil, fmt.Errorf("invalid group configuration %s %s", conf.App.ClientId, conf.Vending.AssetId)
	}
	return &Group{
		client:   client,
		store:    store,
		clientId: conf.App.ClientId,
		assetId:  conf.Vending.AssetId,
		pin:      conf.App.PIN,
	}, nil
}

func (grp *Group) GetClientId() string {
	return grp.clientId
}

func (grp *Group) GetAssetId() string {
	return grp.assetId
}

func (grp *Group) AddWorker(wkr Worker) {
	grp.workers = append(grp.workers, wkr)
}

func (grp *Group) Run(ctx context.Context) {
	for ctx.Err() == nil {
		err := grp.Step(ctx)
		if err != nil {
			logger.Printf("Group.Step() => %v\n", err)
		}
		time.Sleep(time.Second)
	}
}

// Step drains new payments, hands pending ones to the workers and publishes
// the transfers they build.
func (grp *Group) Step(ctx context.Context) error {
	err := grp.drainOutputs(ctx, 100)
	if err != nil {
		return err
	}
	err = grp.handlePendingOutputs(ctx)
	if err != nil {
		return err
	}
	return grp.publishTransactions(ctx)
}

func (grp *Group) handlePendingOutputs(ctx context.Context) error {
	outputs, err := grp.store.ListOutputs(OutputStatePending, 16)
	if err != nil {
		return err
	}
	for _, out := range outputs {
		for _, wkr := range grp.workers {
			wkr.ProcessOutput(ctx, out)
		}
		out.State = OutputStateProcessed
		out.UpdatedAt = time.Now()
		err = grp.store.WriteOutput(out)
		if err != nil {
			return err
		}
	}
	return nil
}
