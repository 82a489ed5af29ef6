package mtg

import (
	"context"
	"time"
)

const outputsDrainingKey = "outputs-draining-checkpoint"

func (grp *Group) drainOutputs(ctx context.Context, batch int) error {
	for {
		checkpoint, err := grp.readOutputsDrainingCheckpoint(ctx)
		if err != nil {
			return err
		}
		snapshots, err := grp.client.ReadSnapshots(ctx, grp.assetId, checkpoint, "ASC", batch)
		if err != nil {
			return err
		}
		previous := checkpoint

		for _, s := range snapshots {
			checkpoint = s.CreatedAt
			if s.Amount.Sign() <= 0 || s.OpponentID == "" || s.AssetID != grp.assetId {
				continue
			}
			old, err := grp.store.ReadOutput(s.SnapshotID)
			if err != nil {
				return err
			} else if old != nil {
				continue
			}
			err = grp.store.WriteOutput(NewOutputFromSnapshot(s))
			if err != nil {
				return err
			}
		}

		err = grp.writeOutputsDrainingCheckpoint(ctx, checkpoint)
		if err != nil {
			return err
		}
		if len(snapshots) < batch/2 || !checkpoint.After(previous) {
			return nil
		}
	}
}

func (grp *Group) readOutputsDrainingCheckpoint(ctx context.Context) (time.Time, error) {
	return readTimeProperty(grp.store, outputsDrainingKey)
}

func (grp *Group) writeOutputsDrainingCheckpoint(ctx context.Context, ckpt time.Time) error {
	if ckpt.IsZero() {
		return nil
	}
	return writeTimeProperty(grp.store, outputsDrainingKey, ckpt)
}
